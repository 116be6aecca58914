package config

// Store defaults
const (
	DefaultStoreRoot   = ".taskengine"
	DefaultHistoryFile = ".taskengine/.history.json"
	DefaultFocusFile   = ".taskengine/.last"
)

// Retention and safety defaults
const (
	DefaultRetentionDays  = 30
	DefaultMaxArrayLength = 200
	DefaultStrictWrites   = true
)

// Sync service defaults
const (
	DefaultSyncEnabled = false
)
