package model

import "time"

// FinalStatus is the terminal classification of one component run.
type FinalStatus string

const (
	// StatusSuccess means apply and verification completed cleanly.
	StatusSuccess FinalStatus = "success"
	// StatusSkipped means the run ended without mutation (skip or abort).
	StatusSkipped FinalStatus = "skipped"
	// StatusPartialSuccess means verification passed but non-fatal warnings
	// were recorded earlier in the run.
	StatusPartialSuccess FinalStatus = "partial-success"
	// StatusFailed means the run failed and no completed rollback recovered it.
	StatusFailed FinalStatus = "failed"
	// StatusRolledBack means a failure occurred and the most recent backup
	// was restored without error.
	StatusRolledBack FinalStatus = "rolled-back"
)

// ExitCode maps a final status to the process exit code contract:
// Success/PartialSuccess/Skipped are zero, Failed/RolledBack are non-zero.
func (s FinalStatus) ExitCode() int {
	switch s {
	case StatusFailed, StatusRolledBack:
		return 1
	default:
		return 0
	}
}

// RunReport is the structured record of one component run: the ordered
// check results, the resolved decision, the backup taken (if any), the
// verification outcome and the terminal status. The engine returns it as a
// value; persistence is a boundary concern.
type RunReport struct {
	Component       string              `yaml:"component"`
	ComponentType   string              `yaml:"component_type,omitempty"`
	StartedAt       time.Time           `yaml:"started_at"`
	FinishedAt      time.Time           `yaml:"finished_at"`
	Checks          []Check             `yaml:"checks,omitempty"`
	DetectedState   DetectedState       `yaml:"detected_state,omitempty"`
	ObservedVersion string              `yaml:"observed_version,omitempty"`
	Decision        Decision            `yaml:"decision,omitempty"`
	Backup          *BackupRecord       `yaml:"backup,omitempty"`
	Verification    *VerificationResult `yaml:"verification,omitempty"`
	FinalStatus     FinalStatus         `yaml:"final_status"`
	// Reason is the human-readable explanation accompanying every terminal
	// status.
	Reason string `yaml:"reason,omitempty"`
	// ManualRecovery flags the unrecoverable case: restore itself failed and
	// operator intervention is required.
	ManualRecovery bool     `yaml:"manual_recovery,omitempty"`
	Warnings       []string `yaml:"warnings,omitempty"`
}

// AddWarning records a non-fatal advisory on the report.
func (r *RunReport) AddWarning(msg string) {
	if r == nil || msg == "" {
		return
	}
	r.Warnings = append(r.Warnings, msg)
}

// BackupLocation returns the backup path for operator guidance, empty when
// no backup was taken.
func (r *RunReport) BackupLocation() string {
	if r == nil || r.Backup == nil {
		return ""
	}
	return r.Backup.Location
}
