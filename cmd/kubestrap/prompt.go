package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/kimama4423/kubestrap/internal/model"
)

// huhPrompter blocks on an explicit operator choice for existing
// components. It lives out here so the engine's state machine stays
// deterministic and testable without a terminal.
type huhPrompter struct{}

func newHuhPrompter() *huhPrompter {
	return &huhPrompter{}
}

func (p *huhPrompter) Choose(ctx context.Context, component model.Component) (model.Decision, error) {
	title := fmt.Sprintf("%s is already installed (%s", component.Name, component.DetectedState)
	if component.InstalledVersion != "" {
		title += ", version " + component.InstalledVersion
	}
	title += ")"

	var decision model.Decision

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[model.Decision]().
				Title(title).
				Description("Choose how to handle the existing installation").
				Options(
					huh.NewOption("Continue and upgrade in place", model.DecisionContinue),
					huh.NewOption("Skip this component", model.DecisionSkip),
					huh.NewOption("Back up current state, then reinstall", model.DecisionBackupThenReinstall),
					huh.NewOption("Abort the whole run", model.DecisionAbort),
				).
				Value(&decision),
		),
	)

	if err := form.RunWithContext(ctx); err != nil {
		return "", err
	}
	return decision, nil
}
