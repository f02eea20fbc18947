package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"wiki-quiz/internal/app"
	"wiki-quiz/internal/domain/entity"
	"wiki-quiz/internal/observability/logging"
)

// quizService is what the commands need from the pipeline.
type quizService interface {
	Generate(ctx context.Context, url string) (*entity.Quiz, error)
	Get(ctx context.Context, id int64) (*entity.Quiz, error)
	History(ctx context.Context) ([]entity.QuizSummary, error)
	Delete(ctx context.Context, id int64) error
}

// cli carries the state shared by all commands.
type cli struct {
	v   *viper.Viper
	out io.Writer
	// open builds the service; the returned func releases it. Without
	// needsModel the model configuration is not loaded.
	open func(ctx context.Context, needsModel bool) (quizService, func() error, error)
}

func newCLI(out io.Writer) *cli {
	c := &cli{v: viper.New(), out: out}
	c.open = c.openApp
	return c
}

func (c *cli) openApp(ctx context.Context, needsModel bool) (quizService, func() error, error) {
	if dsn := c.v.GetString("database-url"); dsn != "" {
		if err := os.Setenv("DATABASE_URL", dsn); err != nil {
			return nil, nil, err
		}
	}
	var opts []app.Option
	if !needsModel {
		opts = append(opts, app.WithoutModel())
	}
	a, err := app.New(ctx, opts...)
	if err != nil {
		return nil, nil, err
	}
	return a.Quizzes, a.Close, nil
}

// withService opens the service, runs fn and releases the service.
func (c *cli) withService(ctx context.Context, needsModel bool, fn func(quizService) error) (err error) {
	svc, closeFn, err := c.open(ctx, needsModel)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(svc)
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "quizctl",
		Short: "quizctl turns Wikipedia articles into quizzes",
		Long: `quizctl runs the Wikipedia quiz pipeline locally and manages the stored quizzes.

Configuration comes from the same environment variables as the API server
(DATABASE_URL, MODEL_PROVIDER, ANTHROPIC_API_KEY, ...). Flags override them.

Examples:
  quizctl generate https://en.wikipedia.org/wiki/Alan_Turing
  quizctl history
  quizctl show 3 -o yaml
  quizctl delete 3`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}

	root.PersistentFlags().String("database-url", "", "database URL (env DATABASE_URL)")
	root.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn or error (env LOG_LEVEL)")
	root.PersistentFlags().StringP("output", "o", "text", "output format: text, json or yaml (env QUIZCTL_OUTPUT)")

	root.AddCommand(
		newGenerateCmd(c),
		newHistoryCmd(c),
		newShowCmd(c),
		newDeleteCmd(c),
	)
	return root
}

// setup binds flags and environment into viper and installs the logger.
// Logs go to stderr so stdout stays machine-readable.
func (c *cli) setup(cmd *cobra.Command) error {
	if err := c.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	_ = c.v.BindEnv("database-url", "DATABASE_URL")
	_ = c.v.BindEnv("log-level", "LOG_LEVEL")
	_ = c.v.BindEnv("output", "QUIZCTL_OUTPUT")

	switch c.format() {
	case formatText, formatJSON, formatYAML:
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", c.v.GetString("output"))
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logging.ParseLevel(c.v.GetString("log-level")),
	})
	slog.SetDefault(slog.New(logging.NewContextHandler(handler)))
	return nil
}

func (c *cli) format() string {
	return strings.ToLower(strings.TrimSpace(c.v.GetString("output")))
}
