package model

// Severity classifies the outcome of a single prerequisite check.
type Severity string

const (
	// SeverityOK marks a check whose condition is fully satisfied.
	SeverityOK Severity = "ok"
	// SeverityWarning marks a degraded but non-blocking condition.
	SeverityWarning Severity = "warning"
	// SeverityError marks a blocking condition; any error-severity check
	// gates every mutating step of the run.
	SeverityError Severity = "error"
)

var severityRank = map[Severity]int{
	SeverityOK:      0,
	SeverityWarning: 1,
	SeverityError:   2,
}

// AtLeast reports whether s is at or above the supplied gate severity.
func (s Severity) AtLeast(gate Severity) bool {
	return severityRank[s] >= severityRank[gate]
}

// Valid reports whether s is one of the recognised severities.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// Check is the classified result of one prerequisite probe.
type Check struct {
	ID       string   `yaml:"id"`
	Severity Severity `yaml:"severity"`
	Message  string   `yaml:"message"`
}

// Blocking filters checks at or above the gate severity.
func Blocking(checks []Check, gate Severity) []Check {
	var out []Check
	for _, c := range checks {
		if c.Severity == SeverityOK {
			continue
		}
		if c.Severity.AtLeast(gate) {
			out = append(out, c)
		}
	}
	return out
}

// Warnings filters warning-severity checks.
func Warnings(checks []Check) []Check {
	var out []Check
	for _, c := range checks {
		if c.Severity == SeverityWarning {
			out = append(out, c)
		}
	}
	return out
}
