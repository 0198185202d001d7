package model

import "time"

// VerifyOutcome classifies the result of post-apply verification.
type VerifyOutcome string

const (
	// OutcomeReady means the probe reported healthy within budget.
	OutcomeReady VerifyOutcome = "ready"
	// OutcomeNotReady means the probe actively reported failure up to the
	// deadline.
	OutcomeNotReady VerifyOutcome = "not-ready"
	// OutcomeTimeout means the probe never returned an answer within budget.
	OutcomeTimeout VerifyOutcome = "timeout"
)

// VerificationResult captures the outcome of bounded health polling for
// one component. NotReady and Timeout are logged differently but both make
// the run rollback-eligible.
type VerificationResult struct {
	Component string        `yaml:"component"`
	Outcome   VerifyOutcome `yaml:"outcome"`
	Elapsed   time.Duration `yaml:"elapsed"`
	Detail    string        `yaml:"detail,omitempty"`
}
