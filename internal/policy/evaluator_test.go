package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configWith(limit TimeLimitSettings, bedtime BedtimeSchedule) PolicyConfig {
	cfg := DefaultPolicyConfig()
	cfg.TimeLimit = limit
	cfg.Bedtime = bedtime
	return cfg
}

func TestEvaluate(t *testing.T) {
	midday := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	night := time.Date(2026, 3, 10, 22, 30, 0, 0, time.Local)
	overnight := BedtimeSchedule{Enabled: true, StartTime: "21:00", EndTime: "07:00"}

	tests := []struct {
		name     string
		now      time.Time
		cfg      PolicyConfig
		usage    int
		override bool
		want     Verdict
	}{
		{
			name:  "everything disabled allows",
			now:   midday,
			cfg:   DefaultPolicyConfig(),
			usage: 500,
			want:  Verdict{Kind: VerdictAllowed},
		},
		{
			name:  "under limit allows with remaining",
			now:   midday,
			cfg:   configWith(TimeLimitSettings{Enabled: true, DailyLimitMinutes: 120}, BedtimeSchedule{}),
			usage: 45,
			want:  Verdict{Kind: VerdictAllowed, RemainingMinutes: 75},
		},
		{
			name:  "at limit blocks",
			now:   midday,
			cfg:   configWith(TimeLimitSettings{Enabled: true, DailyLimitMinutes: 120}, BedtimeSchedule{}),
			usage: 120,
			want:  Verdict{Kind: VerdictTimeLimitExceeded},
		},
		{
			name:  "over limit blocks",
			now:   midday,
			cfg:   configWith(TimeLimitSettings{Enabled: true, DailyLimitMinutes: 120}, BedtimeSchedule{}),
			usage: 200,
			want:  Verdict{Kind: VerdictTimeLimitExceeded},
		},
		{
			name:  "zero limit blocks immediately",
			now:   midday,
			cfg:   configWith(TimeLimitSettings{Enabled: true, DailyLimitMinutes: 0}, BedtimeSchedule{}),
			usage: 0,
			want:  Verdict{Kind: VerdictTimeLimitExceeded},
		},
		{
			name:  "disabled limit ignores usage",
			now:   midday,
			cfg:   configWith(TimeLimitSettings{Enabled: false, DailyLimitMinutes: 120}, BedtimeSchedule{}),
			usage: 500,
			want:  Verdict{Kind: VerdictAllowed},
		},
		{
			name: "inside bedtime window",
			now:  night,
			cfg:  configWith(TimeLimitSettings{}, overnight),
			want: Verdict{Kind: VerdictBedtimeRestricted, WindowEnd: "07:00"},
		},
		{
			name:  "time limit wins over bedtime",
			now:   night,
			cfg:   configWith(TimeLimitSettings{Enabled: true, DailyLimitMinutes: 60}, overnight),
			usage: 60,
			want:  Verdict{Kind: VerdictTimeLimitExceeded},
		},
		{
			name:     "override supersedes time limit",
			now:      midday,
			cfg:      configWith(TimeLimitSettings{Enabled: true, DailyLimitMinutes: 60}, BedtimeSchedule{}),
			usage:    60,
			override: true,
			want:     Verdict{Kind: VerdictAllowed},
		},
		{
			name:     "override supersedes bedtime",
			now:      night,
			cfg:      configWith(TimeLimitSettings{}, overnight),
			override: true,
			want:     Verdict{Kind: VerdictAllowed},
		},
		{
			name:     "override reports remaining when under limit",
			now:      midday,
			cfg:      configWith(TimeLimitSettings{Enabled: true, DailyLimitMinutes: 120}, BedtimeSchedule{}),
			usage:    30,
			override: true,
			want:     Verdict{Kind: VerdictAllowed, RemainingMinutes: 90},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.now, tt.cfg, tt.usage, tt.override)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApproachingLimit(t *testing.T) {
	limit := TimeLimitSettings{Enabled: true, DailyLimitMinutes: 100}

	tests := []struct {
		name          string
		cfg           PolicyConfig
		usage         int
		wantWarning   bool
		wantRemaining int
	}{
		{
			name:  "disabled limit never warns",
			cfg:   DefaultPolicyConfig(),
			usage: 99,
		},
		{
			name:  "well under threshold",
			cfg:   configWith(limit, BedtimeSchedule{}),
			usage: 50,
		},
		{
			name:  "just under threshold",
			cfg:   configWith(limit, BedtimeSchedule{}),
			usage: 79,
		},
		{
			name:          "at threshold warns",
			cfg:           configWith(limit, BedtimeSchedule{}),
			usage:         80,
			wantWarning:   true,
			wantRemaining: 20,
		},
		{
			name:          "just below limit warns",
			cfg:           configWith(limit, BedtimeSchedule{}),
			usage:         99,
			wantWarning:   true,
			wantRemaining: 1,
		},
		{
			name:  "at limit no longer warns",
			cfg:   configWith(limit, BedtimeSchedule{}),
			usage: 100,
		},
		{
			name:  "over limit no longer warns",
			cfg:   configWith(limit, BedtimeSchedule{}),
			usage: 150,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning := ApproachingLimit(tt.cfg, tt.usage)
			if !tt.wantWarning {
				assert.Nil(t, warning)
				return
			}
			require.NotNil(t, warning)
			assert.Equal(t, tt.wantRemaining, warning.RemainingMinutes)
		})
	}
}
