package event

import (
	"context"
	"log/slog"
)

// LogActivity writes every account event to logger until ctx is done.
func LogActivity(ctx context.Context, bus Bus, logger *slog.Logger) {
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			level := slog.LevelInfo
			if e.Type == TypeAccountLoginFailed {
				level = slog.LevelWarn
			}
			logger.LogAttrs(ctx, level, "account activity",
				slog.String("event", string(e.Type)),
				slog.String("event_id", e.ID),
				slog.String("user_id", e.ActorID),
				slog.String("email", e.Email),
			)
		}
	}
}
