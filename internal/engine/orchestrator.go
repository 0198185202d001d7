package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kimama4423/kubestrap/internal/config"
	"github.com/kimama4423/kubestrap/internal/executor"
	"github.com/kimama4423/kubestrap/internal/logger"
	"github.com/kimama4423/kubestrap/internal/model"
)

// Orchestrator sequences one provisioning run per component:
// prerequisite gate, state detection, decision, optional backup, apply,
// verification and rollback on failure. Execution is single-threaded and
// sequential; no step starts before the previous step's result is known.
type Orchestrator struct {
	policy   config.Policy
	backups  *BackupManager
	rollback *RollbackController
	detector *Detector
	prompter Prompter
	log      *logger.Logger
}

// NewOrchestrator assembles an orchestrator from its collaborators.
func NewOrchestrator(policy config.Policy, backups *BackupManager, prompter Prompter, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		policy:   policy,
		backups:  backups,
		rollback: NewRollbackController(log),
		detector: NewDetector(log),
		prompter: prompter,
		log:      log,
	}
}

// Run drives a single component through the state machine and returns its
// report. The report is a plain value; persisting it is the caller's
// concern. Cancellation is honoured at phase boundaries only: a signal
// received during Apply lets the mutation finish or fail naturally, then
// skips verification and offers rollback.
func (o *Orchestrator) Run(ctx context.Context, spec *config.Component, exec executor.Executor, checklist []CheckFunc) *model.RunReport {
	log := o.log.WithComponent(spec.Name)

	report := &model.RunReport{
		Component:     spec.Name,
		ComponentType: spec.Type,
		StartedAt:     time.Now().UTC(),
	}
	defer func() {
		report.FinishedAt = time.Now().UTC()
	}()

	// Checked: the prerequisite gate. Nothing mutates until the checklist
	// comes back clean of blocking severities.
	report.Checks = RunChecks(ctx, checklist)
	for _, warning := range model.Warnings(report.Checks) {
		report.AddWarning(fmt.Sprintf("precheck %s: %s", warning.ID, warning.Message))
	}
	if blocking := model.Blocking(report.Checks, o.policy.CheckSeverityGate); len(blocking) > 0 {
		ids := make([]string, 0, len(blocking))
		for _, c := range blocking {
			ids = append(ids, c.ID)
		}
		return o.fail(report, fmt.Sprintf("prerequisite checks failed: %s", strings.Join(ids, ", ")))
	}

	if err := ctx.Err(); err != nil {
		return o.skip(report, "interrupted before detection")
	}

	// Detected: read-only probe of what is already on the host.
	component := model.Component{
		Name:           spec.Name,
		Type:           spec.Type,
		DesiredVersion: spec.DesiredVersion,
	}
	component.DetectedState, component.InstalledVersion = o.detector.Detect(ctx, exec, spec.DesiredVersion)
	report.DetectedState = component.DetectedState
	report.ObservedVersion = component.InstalledVersion
	log.WithFields(map[string]any{
		"state":   string(component.DetectedState),
		"version": component.InstalledVersion,
	}).Info("detection complete")

	if err := ctx.Err(); err != nil {
		return o.skip(report, "interrupted before decision")
	}

	// Decided: the four-way recovery choice for anything already present.
	decision, err := ResolveDecision(ctx, component, o.policy, o.prompter)
	if err != nil {
		return o.fail(report, fmt.Sprintf("decision could not be resolved: %v", err))
	}
	report.Decision = decision
	log.WithFields(map[string]any{"decision": string(decision)}).Info("decision resolved")

	switch decision {
	case model.DecisionSkip:
		return o.skip(report, "existing component left untouched")
	case model.DecisionAbort:
		return o.skip(report, "aborted by operator before any mutation")
	}

	if err := ctx.Err(); err != nil {
		return o.skip(report, "interrupted before backup")
	}

	// Backed-up: mandatory when mutating over an existing installation.
	// A backup failure is fatal; no mutation proceeds without a verified
	// snapshot when one is required.
	if component.DetectedState.Present() && decision.Mutating() {
		paths := append(append([]string(nil), exec.StatePaths()...), spec.StatePaths...)
		record, err := o.backups.Snapshot(ctx, spec.Name, paths)
		if err != nil {
			return o.fail(report, fmt.Sprintf("backup failed, refusing to mutate: %v", err))
		}
		report.Backup = record
	}

	if err := ctx.Err(); err != nil {
		return o.skip(report, "interrupted before apply")
	}

	// Applied: the opaque, possibly partially-effective mutation. Apply
	// runs detached from the run context so an interrupt never kills a
	// half-applied mutation; the interrupt is honoured at the next
	// boundary instead.
	plan, err := exec.Plan(ctx, spec)
	if err != nil {
		return o.fail(report, fmt.Sprintf("install plan could not be computed: %v", err))
	}

	applyErr := exec.Apply(context.WithoutCancel(ctx), plan)
	if applyErr != nil {
		log.Error(applyErr, "apply failed")
		return o.recover(report, fmt.Sprintf("apply failed: %v", applyErr))
	}

	if err := ctx.Err(); err != nil {
		report.AddWarning("interrupted during apply; verification skipped")
		return o.recover(report, "run interrupted after apply")
	}

	// Verified: bounded health polling.
	result := Verify(ctx, spec.Name, exec.Probe, o.policy.VerifyTimeout, o.policy.VerifyInterval)
	report.Verification = &result
	log.WithFields(map[string]any{
		"outcome": string(result.Outcome),
		"elapsed": result.Elapsed.String(),
	}).Info("verification complete")

	if result.Outcome != model.OutcomeReady {
		return o.recover(report, fmt.Sprintf("verification ended %s: %s", result.Outcome, result.Detail))
	}

	if len(report.Warnings) > 0 {
		report.FinalStatus = model.StatusPartialSuccess
		report.Reason = "component is healthy, but review the recorded warnings"
		return report
	}

	report.FinalStatus = model.StatusSuccess
	report.Reason = "component applied and verified"
	return report
}

// recover handles every rollback-eligible failure. Restore runs exactly
// once against the most recent record; a restore failure is terminal and
// flags manual recovery.
func (o *Orchestrator) recover(report *model.RunReport, cause string) *model.RunReport {
	if report.Backup == nil {
		report.FinalStatus = model.StatusFailed
		report.Reason = cause + "; no backup exists, nothing was restored"
		return report
	}

	if err := o.rollback.Restore(report.Backup); err != nil {
		o.log.Error(err, "restore failed, manual recovery required")
		report.FinalStatus = model.StatusFailed
		report.ManualRecovery = true
		report.Reason = fmt.Sprintf("%s; restore from %s also failed (%v), manual recovery required", cause, report.Backup.Location, err)
		return report
	}

	report.FinalStatus = model.StatusRolledBack
	report.Reason = fmt.Sprintf("%s; state restored from %s", cause, report.Backup.Location)
	return report
}

func (o *Orchestrator) fail(report *model.RunReport, reason string) *model.RunReport {
	report.FinalStatus = model.StatusFailed
	report.Reason = reason
	return report
}

func (o *Orchestrator) skip(report *model.RunReport, reason string) *model.RunReport {
	report.FinalStatus = model.StatusSkipped
	report.Reason = reason
	return report
}
