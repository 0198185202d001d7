package model

import "time"

// ManifestEntry maps one captured path to its location inside the backup
// directory.
type ManifestEntry struct {
	// Path is the original absolute path on the host.
	Path string `yaml:"path"`
	// Stored is the path relative to the backup location.
	Stored string `yaml:"stored"`
	// Mode is the captured file mode bits.
	Mode uint32 `yaml:"mode"`
	// Dir marks a captured directory.
	Dir bool `yaml:"dir,omitempty"`
}

// BackupRecord describes one completed snapshot. Records are immutable
// after creation and retained until pruned externally.
type BackupRecord struct {
	Component string          `yaml:"component"`
	CreatedAt time.Time       `yaml:"created_at"`
	Location  string          `yaml:"location"`
	Manifest  []ManifestEntry `yaml:"manifest"`
}
