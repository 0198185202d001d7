package engine

import (
	"context"
	"strings"

	"github.com/kimama4423/kubestrap/internal/executor"
	"github.com/kimama4423/kubestrap/internal/logger"
	"github.com/kimama4423/kubestrap/internal/model"
)

// Detector probes whether a component is already present and in what
// condition. Detection is read-only and recomputed fresh every run.
type Detector struct {
	log *logger.Logger
}

// NewDetector creates a detector.
func NewDetector(log *logger.Logger) *Detector {
	return &Detector{log: log}
}

// Detect queries the component's introspection surface. An unreadable
// probe degrades to Absent: "cannot observe" and "not installed" both take
// the least disruptive path (clean install) instead of provoking an
// unnecessary backup. A readable probe whose version cannot be parsed
// yields PresentUnknown, which forces an explicit decision.
func (d *Detector) Detect(ctx context.Context, exec executor.Executor, desiredVersion string) (model.DetectedState, string) {
	observed, err := exec.CurrentVersion(ctx)
	if err != nil {
		d.log.WithFields(map[string]any{"cause": err.Error()}).Debug("version probe unreadable, treating component as absent")
		return model.StateAbsent, ""
	}

	observed = strings.TrimSpace(observed)
	if observed == "" {
		return model.StatePresentUnknown, ""
	}

	parsed, ok := model.ParseVersion(observed)
	if !ok {
		return model.StatePresentUnknown, observed
	}

	if desiredVersion == "" {
		return model.StatePresentCompatible, observed
	}

	desired, ok := model.ParseVersion(desiredVersion)
	if !ok {
		return model.StatePresentUnknown, observed
	}

	if model.VersionSatisfies(parsed, desired) {
		return model.StatePresentCompatible, observed
	}
	return model.StatePresentIncompatible, observed
}
