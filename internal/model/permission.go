package model

// Permission codes carried in admin JWT claims.
type Permission string

const (
	PermissionBlocksRead     Permission = "blocks:read"
	PermissionBlocksWrite    Permission = "blocks:write"
	PermissionQuestionsRead  Permission = "questions:read"
	PermissionQuestionsWrite Permission = "questions:write"
	PermissionSettingsRead   Permission = "settings:read"
	PermissionSettingsWrite  Permission = "settings:write"
	PermissionMonitorRead    Permission = "monitor:read"
)
