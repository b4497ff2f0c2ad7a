package config

// Keys into app_settings controlling the block subsystem. A value of
// "false" disables blocking for the given scope; missing keys default to
// enabled.
const (
	SettingBlockPracticeEnabled = "block_practice_enabled"
	SettingBlockTryoutEnabled   = "block_tryout_enabled"
	SettingBlockExamEnabled     = "block_exam_enabled"
)
