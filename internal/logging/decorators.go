package logging

import (
	"context"
	"log/slog"
	"time"

	"guardian/internal/policy"
)

// EngineLogger wraps a policy engine and logs the mutating and
// override-related calls. Hot-path reads (Verdict, CheckContent,
// IsUserBlocked) pass through untouched; they run on every tick and per list
// item, and logging them would drown everything else.
type EngineLogger struct {
	policy.EngineInterface
	logger *slog.Logger
}

// NewEngineLogger creates a logging decorator for the policy engine
func NewEngineLogger(engine policy.EngineInterface, logger *slog.Logger) policy.EngineInterface {
	return &EngineLogger{
		EngineInterface: engine,
		logger:          logger.With("interface", "PolicyEngine"),
	}
}

func (l *EngineLogger) RequestOverride(password string) error {
	start := time.Now()
	err := l.EngineInterface.RequestOverride(password)
	duration := time.Since(start)

	if err != nil {
		l.logger.Warn("RequestOverride denied",
			"duration", duration,
			"error", err)
		return err
	}

	l.logger.Info("RequestOverride granted",
		"duration", duration)
	return nil
}

func (l *EngineLogger) SetParentPassword(ctx context.Context, password string) error {
	err := l.EngineInterface.SetParentPassword(ctx, password)
	if err != nil {
		l.logger.Error("SetParentPassword failed", "error", err)
		return err
	}
	l.logger.Info("SetParentPassword completed")
	return nil
}

func (l *EngineLogger) UpdateTimeLimit(ctx context.Context, settings policy.TimeLimitSettings) error {
	err := l.EngineInterface.UpdateTimeLimit(ctx, settings)
	if err != nil {
		l.logger.Error("UpdateTimeLimit failed",
			"enabled", settings.Enabled,
			"daily_limit", settings.DailyLimitMinutes,
			"error", err)
		return err
	}
	l.logger.Info("UpdateTimeLimit completed",
		"enabled", settings.Enabled,
		"daily_limit", settings.DailyLimitMinutes)
	return nil
}

func (l *EngineLogger) UpdateBedtime(ctx context.Context, schedule policy.BedtimeSchedule) error {
	err := l.EngineInterface.UpdateBedtime(ctx, schedule)
	if err != nil {
		l.logger.Error("UpdateBedtime failed",
			"enabled", schedule.Enabled,
			"start", schedule.StartTime,
			"end", schedule.EndTime,
			"error", err)
		return err
	}
	l.logger.Info("UpdateBedtime completed",
		"enabled", schedule.Enabled,
		"start", schedule.StartTime,
		"end", schedule.EndTime)
	return nil
}

func (l *EngineLogger) UpdateContentFilter(ctx context.Context, settings policy.ContentFilterSettings) error {
	err := l.EngineInterface.UpdateContentFilter(ctx, settings)
	if err != nil {
		l.logger.Error("UpdateContentFilter failed",
			"keywords", len(settings.Keywords),
			"error", err)
		return err
	}
	l.logger.Info("UpdateContentFilter completed",
		"keywords", len(settings.Keywords))
	return nil
}

func (l *EngineLogger) BlockUser(ctx context.Context, username string) (policy.BlockedUser, error) {
	entry, err := l.EngineInterface.BlockUser(ctx, username)
	if err != nil {
		l.logger.Error("BlockUser failed",
			"username", username,
			"error", err)
		return entry, err
	}
	l.logger.Info("BlockUser completed",
		"username", entry.Username,
		"id", entry.ID)
	return entry, nil
}

func (l *EngineLogger) UnblockUser(ctx context.Context, id string) error {
	err := l.EngineInterface.UnblockUser(ctx, id)
	if err != nil {
		l.logger.Error("UnblockUser failed",
			"id", id,
			"error", err)
		return err
	}
	l.logger.Info("UnblockUser completed", "id", id)
	return nil
}

func (l *EngineLogger) StopTracking(ctx context.Context, id string) (int, error) {
	minutes, err := l.EngineInterface.StopTracking(ctx, id)
	if err != nil {
		l.logger.Error("StopTracking failed",
			"tracking_id", id,
			"error", err)
		return minutes, err
	}
	l.logger.Info("StopTracking completed",
		"tracking_id", id,
		"minutes_recorded", minutes)
	return minutes, nil
}
