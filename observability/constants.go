package observability

// Metric namespace
const (
	Namespace = "scoreboard"
	JobName   = "scoreboard_scoring"
)

// Metric names
const (
	GamesProcessedTotal     = "games_processed_total"
	AchievementsTotal       = "achievements_unlocked_total"
	StreaksCompletedTotal   = "streaks_completed_total"
	GriefsDetectedTotal     = "griefs_detected_total"
	CacheEvictionsTotal     = "cache_evictions_total"
	RunDurationSeconds      = "run_duration_seconds"
	RunPlayers              = "run_players"
	RunLastSuccessTimestamp = "run_last_success_timestamp_seconds"
)

// Label keys
const (
	LabelResult      = "result"
	LabelAchievement = "achievement"
	LabelCache       = "cache"
)

// Values of LabelResult
const (
	ResultScored      = "scored"
	ResultBlacklisted = "blacklisted"
	ResultInvalid     = "invalid"
)
