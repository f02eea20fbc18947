package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"wiki-quiz/internal/domain/entity"
)

func newGenerateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <url>",
		Short: "Generate (or fetch the stored) quiz for a Wikipedia article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := entity.ValidateArticleURL(args[0]); err != nil {
				return err
			}
			return c.withService(cmd.Context(), true, func(svc quizService) error {
				quiz, err := svc.Generate(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return c.printQuiz(quiz)
			})
		},
	}
}

func newHistoryCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List stored quizzes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd.Context(), false, func(svc quizService) error {
				summaries, err := svc.History(cmd.Context())
				if err != nil {
					return err
				}
				return c.printHistory(summaries)
			})
		},
	}
}

func newShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored quiz",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.withService(cmd.Context(), false, func(svc quizService) error {
				quiz, err := svc.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				return c.printQuiz(quiz)
			})
		},
	}
}

func newDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored quiz with its questions and topics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.withService(cmd.Context(), false, func(svc quizService) error {
				if err := svc.Delete(cmd.Context(), id); err != nil {
					return err
				}
				_, err := fmt.Fprintf(c.out, "deleted quiz %d\n", id)
				return err
			})
		},
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, entity.Invalid("id", "id must be a positive integer")
	}
	return id, nil
}
