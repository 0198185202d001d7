package executor

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kimama4423/kubestrap/internal/logger"
	"github.com/kimama4423/kubestrap/internal/model"
	kuberrors "github.com/kimama4423/kubestrap/pkg/errors"
)

func planTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(logger.Options{Level: "disabled", Writer: io.Discard})
	require.NoError(t, err)
	return log
}

func TestApplyPlanRunsStepsInOrder(t *testing.T) {
	t.Parallel()

	var order []string
	step := func(name string) model.PlanStep {
		return model.PlanStep{
			Name: name,
			Run: func(_ context.Context) error {
				order = append(order, name)
				return nil
			},
		}
	}

	plan := &model.InstallPlan{
		Component: "runtime",
		Steps:     []model.PlanStep{step("install-package"), step("write-config"), step("enable-service")},
	}

	require.NoError(t, ApplyPlan(context.Background(), planTestLogger(t), plan))
	require.Equal(t, []string{"install-package", "write-config", "enable-service"}, order)
}

func TestApplyPlanSkipsSatisfiedPostconditions(t *testing.T) {
	t.Parallel()

	ran := false
	plan := &model.InstallPlan{
		Component: "control-plane",
		Steps: []model.PlanStep{{
			Name: "kubeadm-init",
			Done: func(_ context.Context) (bool, error) { return true, nil },
			Run: func(_ context.Context) error {
				ran = true
				return nil
			},
		}},
	}

	require.NoError(t, ApplyPlan(context.Background(), planTestLogger(t), plan))
	require.False(t, ran, "a step whose postcondition holds must be a no-op")
}

func TestApplyPlanStopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	var after bool
	plan := &model.InstallPlan{
		Component: "flannel",
		Steps: []model.PlanStep{
			{Name: "apply-manifest", Run: func(_ context.Context) error { return errors.New("connection refused") }},
			{Name: "never-reached", Run: func(_ context.Context) error { after = true; return nil }},
		},
	}

	err := ApplyPlan(context.Background(), planTestLogger(t), plan)
	require.Error(t, err)
	require.False(t, after)

	var applyErr *kuberrors.ApplyError
	require.True(t, errors.As(err, &applyErr))
	require.Equal(t, "flannel", applyErr.Component)
	require.Equal(t, "apply-manifest", applyErr.Step)
}

func TestApplyPlanPostconditionErrors(t *testing.T) {
	t.Parallel()

	plan := &model.InstallPlan{
		Component: "tls",
		Steps: []model.PlanStep{{
			Name: "issue-certificates",
			Done: func(_ context.Context) (bool, error) { return false, errors.New("permission denied") },
			Run:  func(_ context.Context) error { return nil },
		}},
	}

	err := ApplyPlan(context.Background(), planTestLogger(t), plan)
	require.Error(t, err)
	require.Contains(t, err.Error(), "postcondition check")
}

func TestApplyPlanHonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	plan := &model.InstallPlan{
		Component: "registry",
		Steps: []model.PlanStep{{
			Name: "create-namespace",
			Run:  func(_ context.Context) error { ran = true; return nil },
		}},
	}

	err := ApplyPlan(ctx, planTestLogger(t), plan)
	require.Error(t, err)
	require.False(t, ran)
}

func TestApplyPlanNilPlan(t *testing.T) {
	t.Parallel()

	require.Error(t, ApplyPlan(context.Background(), planTestLogger(t), nil))
}
