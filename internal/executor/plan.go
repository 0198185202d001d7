package executor

import (
	"context"
	"fmt"

	"github.com/kimama4423/kubestrap/internal/logger"
	"github.com/kimama4423/kubestrap/internal/model"
	kuberrors "github.com/kimama4423/kubestrap/pkg/errors"
)

// ApplyPlan runs the plan's steps in order. A step whose postcondition
// already holds is skipped, which keeps re-runs free of side effects.
// Execution stops at the first failing step; the half-applied state is the
// rollback machinery's problem, not this function's.
func ApplyPlan(ctx context.Context, log *logger.Logger, plan *model.InstallPlan) error {
	if plan == nil {
		return kuberrors.NewApplyError("", "", fmt.Errorf("install plan is nil"))
	}

	for _, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return kuberrors.NewApplyError(plan.Component, step.Name, err)
		}

		if step.Done != nil {
			done, err := step.Done(ctx)
			if err != nil {
				return kuberrors.NewApplyError(plan.Component, step.Name, fmt.Errorf("postcondition check: %w", err))
			}
			if done {
				log.WithFields(map[string]any{"step": step.Name}).Debug("postcondition already satisfied, skipping")
				continue
			}
		}

		log.WithFields(map[string]any{"step": step.Name}).Info("running install step")
		if err := step.Run(ctx); err != nil {
			return kuberrors.NewApplyError(plan.Component, step.Name, err)
		}
	}

	return nil
}
