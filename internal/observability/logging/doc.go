// Package logging configures the process-wide slog logger.
//
// NewLogger reads LOG_LEVEL and LOG_FORMAT and wraps the handler so that any
// record logged with a request context carries request_id and trace_id:
//
//	slog.SetDefault(logging.NewLogger())
//	slog.InfoContext(ctx, "quiz ready", slog.Int64("quiz_id", id))
package logging
