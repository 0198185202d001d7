package engine

import (
	"context"
	"fmt"

	"github.com/kimama4423/kubestrap/internal/config"
	"github.com/kimama4423/kubestrap/internal/model"
)

// Prompter resolves the four-way recovery choice for an existing
// component. The interactive implementation lives in the CLI layer; the
// engine only depends on this interface so the state machine stays
// deterministic and testable without a terminal.
type Prompter interface {
	Choose(ctx context.Context, component model.Component) (model.Decision, error)
}

// ResolveDecision maps the detected state and policy to a decision.
//
// An absent component always resolves to Continue without blocking for
// input. For an existing component the policy override wins when supplied;
// otherwise the run must block on an explicit operator choice. There is no
// silent default: overwriting an existing, possibly-customised component
// without consent is the failure mode this engine exists to prevent, so a
// non-interactive run without an override is an error.
func ResolveDecision(ctx context.Context, component model.Component, policy config.Policy, prompter Prompter) (model.Decision, error) {
	if !component.DetectedState.Present() {
		return model.DecisionContinue, nil
	}

	if policy.DecisionOverride != "" {
		return policy.DecisionOverride, nil
	}

	if policy.NonInteractive || prompter == nil {
		return "", fmt.Errorf("component %s is %s and no decision_override is set; refusing to choose for a non-interactive run", component.Name, component.DetectedState)
	}

	decision, err := prompter.Choose(ctx, component)
	if err != nil {
		return "", err
	}
	if _, err := model.ParseDecision(string(decision)); err != nil {
		return "", err
	}
	return decision, nil
}
