package model

import "fmt"

// Decision is the resolved outcome of the four-way recovery choice offered
// when an existing component is detected.
type Decision string

const (
	// DecisionContinue proceeds with the install, upgrading in place.
	DecisionContinue Decision = "continue"
	// DecisionSkip leaves the existing component untouched.
	DecisionSkip Decision = "skip"
	// DecisionBackupThenReinstall snapshots current state before reinstalling.
	DecisionBackupThenReinstall Decision = "backup-then-reinstall"
	// DecisionAbort terminates the entire run with zero further side effects.
	DecisionAbort Decision = "abort"
)

// Mutating reports whether the decision leads to an Apply phase.
func (d Decision) Mutating() bool {
	return d == DecisionContinue || d == DecisionBackupThenReinstall
}

// ParseDecision converts a policy string into a Decision.
func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionContinue, DecisionSkip, DecisionBackupThenReinstall, DecisionAbort:
		return Decision(s), nil
	}
	return "", fmt.Errorf("unrecognised decision %q", s)
}
