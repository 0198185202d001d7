package engine

import (
	"context"
	"fmt"

	"github.com/kimama4423/kubestrap/internal/model"
)

// CheckFunc is a single prerequisite probe. Implementations classify their
// own outcome; a probe that cannot complete must report SeverityError with
// the underlying cause in the message rather than dropping it.
type CheckFunc func(ctx context.Context) model.Check

// RunChecks executes the full checklist in order and returns every result.
// It never short-circuits: the caller always sees the complete picture
// before deciding whether to proceed. A probe that panics is recorded as
// an error-severity check, never silently dropped.
func RunChecks(ctx context.Context, checklist []CheckFunc) []model.Check {
	results := make([]model.Check, 0, len(checklist))
	for i, check := range checklist {
		results = append(results, runCheck(ctx, i, check))
	}
	return results
}

func runCheck(ctx context.Context, index int, check CheckFunc) (result model.Check) {
	defer func() {
		if r := recover(); r != nil {
			result = model.Check{
				ID:       fmt.Sprintf("check-%d", index),
				Severity: model.SeverityError,
				Message:  fmt.Sprintf("check panicked: %v", r),
			}
		}
	}()

	result = check(ctx)
	if result.ID == "" {
		result.ID = fmt.Sprintf("check-%d", index)
	}
	if !result.Severity.Valid() {
		result.Severity = model.SeverityError
		result.Message = fmt.Sprintf("check reported unrecognised severity: %s", result.Message)
	}
	return result
}
