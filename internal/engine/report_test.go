package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kimama4423/kubestrap/internal/model"
)

func TestWriteReportRoundTrips(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	report := &model.RunReport{
		Component:     "hub",
		ComponentType: "jupyterhub",
		StartedAt:     time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC),
		DetectedState: model.StateAbsent,
		Decision:      model.DecisionContinue,
		FinalStatus:   model.StatusSuccess,
		Reason:        "component applied and verified",
	}

	path, err := WriteReport(dir, report)
	require.NoError(t, err)
	require.FileExists(t, path)
	require.Contains(t, filepath.Base(path), "hub-")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded model.RunReport
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	require.Equal(t, report.Component, loaded.Component)
	require.Equal(t, report.FinalStatus, loaded.FinalStatus)
	require.Equal(t, report.Decision, loaded.Decision)
}

func TestWriteReportNamespacesByComponent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	first, err := WriteReport(dir, &model.RunReport{Component: "runtime", FinalStatus: model.StatusSuccess})
	require.NoError(t, err)
	second, err := WriteReport(dir, &model.RunReport{Component: "control-plane", FinalStatus: model.StatusFailed})
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.FileExists(t, first)
	require.FileExists(t, second)
}

func TestRenderSummary(t *testing.T) {
	t.Parallel()

	reports := []*model.RunReport{
		{Component: "runtime", FinalStatus: model.StatusSuccess, Reason: "component applied and verified"},
		{
			Component:   "control-plane",
			FinalStatus: model.StatusRolledBack,
			Reason:      "verification ended not-ready",
			Backup:      &model.BackupRecord{Location: "/var/lib/kubestrap/backups/control-plane/x"},
		},
		{
			Component:      "hub",
			FinalStatus:    model.StatusFailed,
			ManualRecovery: true,
			Warnings:       []string{"precheck memory: below comfortable headroom"},
		},
	}

	out := RenderSummary(reports)

	require.Contains(t, out, "Provisioning summary")
	require.Contains(t, out, "runtime")
	require.Contains(t, out, "backup: /var/lib/kubestrap/backups/control-plane/x")
	require.Contains(t, out, "manual recovery required")
	require.Contains(t, out, "warning: precheck memory")
}
