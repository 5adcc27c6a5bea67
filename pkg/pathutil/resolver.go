// Package pathutil provides centralized path management for the config
// directory, the sync database, and the transaction archive.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// appDir is the directory name used under ~/.config.
const appDir = "tr2ynab"

// PathResolver manages paths for the config file, database, and archive.
type PathResolver struct {
	configDir  string
	dbPath     string
	archiveDir string
}

// Config represents the configuration for PathResolver.
type Config struct {
	// ConfigDir is the directory holding config.yaml and, by default, the
	// sync database (e.g. ~/.config/tr2ynab).
	ConfigDir string
	// DatabasePath is the path to the SQLite database for import history.
	DatabasePath string
	// ArchiveDir is the directory for monthly fetched-transaction archives.
	ArchiveDir string
}

// New creates a new PathResolver with the given configuration.
// If ConfigDir is empty, it defaults to ~/.config/tr2ynab.
// If DatabasePath is empty, it defaults to {ConfigDir}/sync.db.
// All paths have a leading ~ expanded.
func New(config Config) *PathResolver {
	configDir := ExpandUser(config.ConfigDir)
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	dbPath := ExpandUser(config.DatabasePath)
	if dbPath == "" {
		dbPath = filepath.Join(configDir, "sync.db")
	}

	return &PathResolver{
		configDir:  configDir,
		dbPath:     dbPath,
		archiveDir: ExpandUser(config.ArchiveDir),
	}
}

// DefaultConfigDir returns ~/.config/tr2ynab, falling back to a relative
// directory when the home directory cannot be determined.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", appDir)
	}
	return filepath.Join(home, ".config", appDir)
}

// DefaultConfigPath returns the default config file location,
// ~/.config/tr2ynab/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// ExpandUser replaces a leading ~ with the current user's home directory.
// Paths without a leading ~ are returned unchanged.
func ExpandUser(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// GetConfigDir returns the config directory.
func (p *PathResolver) GetConfigDir() string {
	return p.configDir
}

// GetDatabasePath returns the database file path.
func (p *PathResolver) GetDatabasePath() string {
	return p.dbPath
}

// GetArchiveDir returns the archive directory, empty when archiving is off.
func (p *PathResolver) GetArchiveDir() string {
	return p.archiveDir
}

// GetYearDir returns the archive directory for a year.
func (p *PathResolver) GetYearDir(year string) string {
	return filepath.Join(p.archiveDir, year)
}

// GetMonthFilePath returns the archive file path for a month.
// yearMonth must be in YYYY-MM format.
// Example: {archive}/2024/2024-01.jsonl
func (p *PathResolver) GetMonthFilePath(yearMonth string) (string, error) {
	parts := strings.Split(yearMonth, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return "", fmt.Errorf("invalid year-month format: %s. Expected YYYY-MM", yearMonth)
	}

	filename := fmt.Sprintf("%s.jsonl", yearMonth)
	return filepath.Join(p.archiveDir, parts[0], filename), nil
}

// EnsureDir creates a directory if it doesn't exist.
// It creates all parent directories as needed (like mkdir -p).
func (p *PathResolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// EnsureParentDir ensures the parent directory of a file exists.
func (p *PathResolver) EnsureParentDir(filePath string) error {
	return p.EnsureDir(filepath.Dir(filePath))
}

// FileExists checks if a file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}
