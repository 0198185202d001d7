package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kimama4423/kubestrap/internal/config"
	"github.com/kimama4423/kubestrap/internal/model"
)

func testPolicy() config.Policy {
	return config.Policy{
		CheckSeverityGate: model.SeverityError,
		VerifyTimeout:     100 * time.Millisecond,
		VerifyInterval:    10 * time.Millisecond,
	}
}

func newTestOrchestrator(t *testing.T, policy config.Policy, prompter Prompter) (*Orchestrator, string) {
	t.Helper()

	root := t.TempDir()
	log := testLogger(t)
	return NewOrchestrator(policy, NewBackupManager(root, log), prompter, log), root
}

func TestOrchestratorCleanInstall(t *testing.T) {
	t.Parallel()

	policy := testPolicy()
	policy.NonInteractive = true
	orch, _ := newTestOrchestrator(t, policy, nil)

	fake := &fakeExecutor{versionErr: errors.New("binary not found"), healthy: true}
	spec := &config.Component{Name: "runtime", Type: "containerd", DesiredVersion: "1.7"}

	report := orch.Run(context.Background(), spec, fake, []CheckFunc{okCheck("cpu")})

	require.Equal(t, model.StatusSuccess, report.FinalStatus)
	require.Equal(t, model.StateAbsent, report.DetectedState)
	require.Equal(t, model.DecisionContinue, report.Decision)
	require.Nil(t, report.Backup)
	require.Equal(t, 1, fake.applyCalls)
	require.NotNil(t, report.Verification)
	require.Equal(t, model.OutcomeReady, report.Verification.Outcome)
	require.False(t, report.FinishedAt.Before(report.StartedAt))
}

func TestOrchestratorSkipExisting(t *testing.T) {
	t.Parallel()

	policy := testPolicy()
	policy.NonInteractive = true
	policy.DecisionOverride = model.DecisionSkip
	orch, _ := newTestOrchestrator(t, policy, nil)

	fake := &fakeExecutor{version: "1.7.2", healthy: true}
	spec := &config.Component{Name: "runtime", Type: "containerd", DesiredVersion: "1.7"}

	report := orch.Run(context.Background(), spec, fake, nil)

	require.Equal(t, model.StatusSkipped, report.FinalStatus)
	require.Equal(t, model.StatePresentCompatible, report.DetectedState)
	require.Equal(t, "1.7.2", report.ObservedVersion)
	require.Equal(t, model.DecisionSkip, report.Decision)
	require.Zero(t, fake.applyCalls)
	require.Zero(t, fake.probeCalls)
	require.Nil(t, report.Backup)
}

func TestOrchestratorBackupReinstallRollback(t *testing.T) {
	t.Parallel()

	stateDir := t.TempDir()
	statePath := filepath.Join(stateDir, "config.toml")
	require.NoError(t, os.WriteFile(statePath, []byte("original"), 0o644))

	policy := testPolicy()
	policy.NonInteractive = true
	policy.DecisionOverride = model.DecisionBackupThenReinstall
	orch, _ := newTestOrchestrator(t, policy, nil)

	fake := &fakeExecutor{
		version:     "2.0.0",
		statePaths:  []string{stateDir},
		probeDetail: "hub deployment has 0 ready replicas",
		applyFn: func(_ context.Context) error {
			return os.WriteFile(statePath, []byte("mutated"), 0o644)
		},
	}
	spec := &config.Component{Name: "hub", Type: "jupyterhub", DesiredVersion: "1.0"}

	report := orch.Run(context.Background(), spec, fake, nil)

	require.Equal(t, model.StatePresentIncompatible, report.DetectedState)
	require.Equal(t, model.StatusRolledBack, report.FinalStatus)
	require.NotNil(t, report.Backup)
	require.Contains(t, report.Reason, report.Backup.Location)
	require.NotNil(t, report.Verification)
	require.Equal(t, model.OutcomeNotReady, report.Verification.Outcome)

	restored, err := os.ReadFile(statePath)
	require.NoError(t, err)
	require.Equal(t, "original", string(restored))
}

func TestOrchestratorApplyFailureWithoutBackup(t *testing.T) {
	t.Parallel()

	policy := testPolicy()
	policy.NonInteractive = true
	orch, _ := newTestOrchestrator(t, policy, nil)

	fake := &fakeExecutor{versionErr: errors.New("not installed"), applyErr: errors.New("apt-get exploded")}
	spec := &config.Component{Name: "runtime", Type: "containerd"}

	report := orch.Run(context.Background(), spec, fake, nil)

	require.Equal(t, model.StatusFailed, report.FinalStatus)
	require.Contains(t, report.Reason, "no backup exists")
	require.False(t, report.ManualRecovery)
	require.Zero(t, fake.probeCalls)
}

func TestOrchestratorRestoreFailureFlagsManualRecovery(t *testing.T) {
	t.Parallel()

	stateDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(stateDir, "ca.pem"), []byte("cert"), 0o644))

	policy := testPolicy()
	policy.NonInteractive = true
	policy.DecisionOverride = model.DecisionContinue
	orch, backupRoot := newTestOrchestrator(t, policy, nil)

	fake := &fakeExecutor{
		version:    "1.0.0",
		statePaths: []string{stateDir},
		applyFn: func(_ context.Context) error {
			// Destroy the snapshot before failing so the subsequent restore
			// has nothing to read from.
			if err := os.RemoveAll(backupRoot); err != nil {
				return err
			}
			return errors.New("apply blew up")
		},
	}
	spec := &config.Component{Name: "tls", Type: "tls", DesiredVersion: "1.0.0"}

	report := orch.Run(context.Background(), spec, fake, nil)

	require.Equal(t, model.StatusFailed, report.FinalStatus)
	require.True(t, report.ManualRecovery)
	require.Contains(t, report.Reason, "manual recovery required")
	require.NotNil(t, report.Backup)
}

func TestOrchestratorBlockedByPrerequisites(t *testing.T) {
	t.Parallel()

	policy := testPolicy()
	policy.NonInteractive = true
	orch, _ := newTestOrchestrator(t, policy, nil)

	fake := &fakeExecutor{versionErr: errors.New("not installed")}
	spec := &config.Component{Name: "runtime", Type: "containerd"}

	report := orch.Run(context.Background(), spec, fake, []CheckFunc{
		okCheck("cpu"),
		errorCheck("memory"),
	})

	require.Equal(t, model.StatusFailed, report.FinalStatus)
	require.Contains(t, report.Reason, "memory")
	require.Zero(t, fake.versionCalls, "detection must not run behind a failed gate")
	require.Zero(t, fake.applyCalls)
	require.Len(t, report.Checks, 2)
}

func TestOrchestratorWarningsYieldPartialSuccess(t *testing.T) {
	t.Parallel()

	policy := testPolicy()
	policy.NonInteractive = true
	orch, _ := newTestOrchestrator(t, policy, nil)

	fake := &fakeExecutor{versionErr: errors.New("not installed"), healthy: true}
	spec := &config.Component{Name: "registry", Type: "registry"}

	report := orch.Run(context.Background(), spec, fake, []CheckFunc{warningCheck("disk")})

	require.Equal(t, model.StatusPartialSuccess, report.FinalStatus)
	require.Len(t, report.Warnings, 1)
	require.Contains(t, report.Warnings[0], "disk")
	require.Equal(t, 1, fake.applyCalls)
}

func TestOrchestratorUnresolvableDecisionFails(t *testing.T) {
	t.Parallel()

	policy := testPolicy()
	policy.NonInteractive = true
	orch, _ := newTestOrchestrator(t, policy, nil)

	fake := &fakeExecutor{version: "1.7.2"}
	spec := &config.Component{Name: "runtime", Type: "containerd", DesiredVersion: "1.7"}

	report := orch.Run(context.Background(), spec, fake, nil)

	require.Equal(t, model.StatusFailed, report.FinalStatus)
	require.Contains(t, report.Reason, "decision could not be resolved")
	require.Zero(t, fake.applyCalls)
}

func TestOrchestratorAbortBeforeMutation(t *testing.T) {
	t.Parallel()

	prompter := &fakePrompter{decision: model.DecisionAbort}
	orch, _ := newTestOrchestrator(t, testPolicy(), prompter)

	fake := &fakeExecutor{version: "1.7.2"}
	spec := &config.Component{Name: "runtime", Type: "containerd", DesiredVersion: "1.7"}

	report := orch.Run(context.Background(), spec, fake, nil)

	require.Equal(t, model.StatusSkipped, report.FinalStatus)
	require.Equal(t, model.DecisionAbort, report.Decision)
	require.Contains(t, report.Reason, "aborted")
	require.Equal(t, 1, prompter.calls)
	require.Zero(t, fake.applyCalls)
	require.Nil(t, report.Backup)
}

func TestOrchestratorInterruptedBeforeDetection(t *testing.T) {
	t.Parallel()

	policy := testPolicy()
	policy.NonInteractive = true
	orch, _ := newTestOrchestrator(t, policy, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := &fakeExecutor{versionErr: errors.New("not installed")}
	spec := &config.Component{Name: "runtime", Type: "containerd"}

	report := orch.Run(ctx, spec, fake, nil)

	require.Equal(t, model.StatusSkipped, report.FinalStatus)
	require.Contains(t, report.Reason, "interrupted")
	require.Zero(t, fake.versionCalls)
	require.Zero(t, fake.applyCalls)
}

func TestOrchestratorPlanFailure(t *testing.T) {
	t.Parallel()

	policy := testPolicy()
	policy.NonInteractive = true
	orch, _ := newTestOrchestrator(t, policy, nil)

	fake := &fakeExecutor{versionErr: errors.New("not installed"), planErr: errors.New("manifest_url is required")}
	spec := &config.Component{Name: "flannel", Type: "cni"}

	report := orch.Run(context.Background(), spec, fake, nil)

	require.Equal(t, model.StatusFailed, report.FinalStatus)
	require.Contains(t, report.Reason, "install plan")
	require.Zero(t, fake.applyCalls)
}
