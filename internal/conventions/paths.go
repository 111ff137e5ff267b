package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default tasktrack data directory name (relative to home).
	DefaultDataDir = ".tasktrack"
	// ConfigFile is the tracker configuration filename.
	ConfigFile = "config.yaml"
	// DBFile is the SQLite database filename used when a file backed store is requested.
	DBFile = "tasktrack.db"

	// DefaultListenAddress is the address the tracker server listens on.
	DefaultListenAddress = ":8000"
)

// DataDir returns the tasktrack data directory inside a home directory.
func DataDir(home string) string {
	return filepath.Join(home, DefaultDataDir)
}

// ConfigPath returns the default tracker configuration path inside a home directory.
func ConfigPath(home string) string {
	return filepath.Join(DataDir(home), ConfigFile)
}

// DBPath returns the default SQLite database path inside a home directory.
func DBPath(home string) string {
	return filepath.Join(DataDir(home), DBFile)
}
