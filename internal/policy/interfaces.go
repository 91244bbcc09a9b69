package policy

import "context"

// Storage defines the persistence operations the engine requires. Each
// section is saved under its own key so partial updates never clobber
// unrelated fields. Getters return a nil value when nothing has been
// persisted yet.
type Storage interface {
	GetParentPassword(ctx context.Context) (*string, error)
	SaveParentPassword(ctx context.Context, value string) error

	GetTimeLimit(ctx context.Context) (*TimeLimitSettings, error)
	SaveTimeLimit(ctx context.Context, settings TimeLimitSettings) error

	GetBedtime(ctx context.Context) (*BedtimeSchedule, error)
	SaveBedtime(ctx context.Context, schedule BedtimeSchedule) error

	GetContentFilter(ctx context.Context) (*ContentFilterSettings, error)
	SaveContentFilter(ctx context.Context, settings ContentFilterSettings) error

	GetBlockedUsers(ctx context.Context) ([]BlockedUser, error)
	SaveBlockedUsers(ctx context.Context, users []BlockedUser) error

	UsageStorage
}

// EngineInterface defines the contract the UI layer consumes
type EngineInterface interface {
	Verdict(ctx context.Context) Verdict
	CurrentWarning(ctx context.Context) *Warning
	CheckContent(text string) FilterResult
	IsUserBlocked(username string) bool
	RequestOverride(password string) error
	OverrideActive() bool
	UsageSummary(ctx context.Context) (UsageSummary, error)

	StartTracking() *TrackingSession
	StopTracking(ctx context.Context, id string) (int, error)
	ActiveTracking() []TrackingInfo

	Config() PolicyConfig
	SetParentPassword(ctx context.Context, password string) error
	UpdateTimeLimit(ctx context.Context, settings TimeLimitSettings) error
	UpdateBedtime(ctx context.Context, schedule BedtimeSchedule) error
	UpdateContentFilter(ctx context.Context, settings ContentFilterSettings) error
	BlockUser(ctx context.Context, username string) (BlockedUser, error)
	UnblockUser(ctx context.Context, id string) error
	BlockedUsers() []BlockedUser
}
