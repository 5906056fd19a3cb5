package logging

import (
	"io"
	"log/slog"
)

// maxDrainBytes caps how much of an unread body is discarded before closing.
const maxDrainBytes = 64 << 10

// SafeCloseWithLogging closes closer and logs a failure instead of returning it.
func SafeCloseWithLogging(closer io.Closer, logger *slog.Logger, operation string) {
	if closer == nil {
		return
	}

	if err := closer.Close(); err != nil {
		LogError(logger, "failed to close resource", err,
			slog.String("operation", operation),
			slog.String("component", "resource_management"))
	}
}

// DrainAndClose discards what is left of an HTTP response body, up to a
// small limit, then closes it. A fully read body lets the transport reuse
// the upstream connection.
func DrainAndClose(body io.ReadCloser, logger *slog.Logger, operation string) {
	if body == nil {
		return
	}

	if _, err := io.Copy(io.Discard, io.LimitReader(body, maxDrainBytes)); err != nil {
		logger.Debug("failed to drain response body",
			slog.String("operation", operation),
			slog.String("error", err.Error()))
	}
	SafeCloseWithLogging(body, logger, operation)
}
