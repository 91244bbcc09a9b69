package policy

import "time"

// warnFraction is the share of the daily limit after which the advisory
// approaching-limit warning is surfaced.
const warnFraction = 0.8

// Evaluate computes the policy verdict from an explicit state snapshot. It is
// pure: no clocks, no I/O, no shared state. Callers pass the wall-clock time,
// the configuration in effect, today's accumulated minutes and the current
// override flag.
//
// Check order is deterministic: an active override supersedes everything,
// then the daily time limit, then the bedtime window. When both restrictions
// hold, the time limit wins because it is the longer-lived one.
func Evaluate(now time.Time, cfg PolicyConfig, todayUsage int, overrideActive bool) Verdict {
	if overrideActive {
		return Verdict{Kind: VerdictAllowed, RemainingMinutes: remainingMinutes(cfg, todayUsage)}
	}

	if cfg.TimeLimit.Enabled && todayUsage >= cfg.TimeLimit.DailyLimitMinutes {
		return Verdict{Kind: VerdictTimeLimitExceeded}
	}

	if cfg.Bedtime.Contains(now) {
		return Verdict{
			Kind:      VerdictBedtimeRestricted,
			WindowEnd: cfg.Bedtime.EndTime,
		}
	}

	return Verdict{Kind: VerdictAllowed, RemainingMinutes: remainingMinutes(cfg, todayUsage)}
}

// ApproachingLimit computes the advisory warning: surfaced when the enabled
// daily limit is at least 80% consumed but not yet exceeded. The returned
// warning is nil otherwise.
func ApproachingLimit(cfg PolicyConfig, todayUsage int) *Warning {
	if !cfg.TimeLimit.Enabled {
		return nil
	}

	limit := cfg.TimeLimit.DailyLimitMinutes
	if todayUsage >= limit {
		return nil
	}
	if float64(todayUsage) < warnFraction*float64(limit) {
		return nil
	}

	return &Warning{RemainingMinutes: limit - todayUsage}
}

func remainingMinutes(cfg PolicyConfig, todayUsage int) int {
	if !cfg.TimeLimit.Enabled {
		return 0
	}
	remaining := cfg.TimeLimit.DailyLimitMinutes - todayUsage
	if remaining < 0 {
		return 0
	}
	return remaining
}
