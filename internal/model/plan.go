package model

import "context"

// PlanStep is one named, idempotent sub-operation of an install plan.
type PlanStep struct {
	// Name identifies the step in logs and apply errors.
	Name string
	// Done reports whether the step's postcondition already holds. A step
	// whose postcondition holds is a no-op on re-runs. A nil Done always
	// runs the step.
	Done func(ctx context.Context) (bool, error)
	// Run performs the step's mutation.
	Run func(ctx context.Context) error
}

// InstallPlan is the ordered list of sub-operations an executor performs
// for one component.
type InstallPlan struct {
	Component string
	Steps     []PlanStep
}
