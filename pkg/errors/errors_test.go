package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseError(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("yaml: line 12: mapping values are not allowed")
	err := NewParseError("/etc/kubestrap/kubestrap.yaml", 12, cause)

	require.Contains(t, err.Error(), "kubestrap.yaml:12")
	require.ErrorIs(t, err, cause)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, 12, parseErr.Line)
}

func TestParseErrorWithoutLine(t *testing.T) {
	t.Parallel()

	err := NewParseError("config.yaml", 0, fmt.Errorf("no such file"))
	require.Contains(t, err.Error(), "config.yaml: no such file")
	require.NotContains(t, err.Error(), ":0:")
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := NewValidationError("settings.decision_override", "unrecognised decision \"redo\"", nil)
	require.Contains(t, err.Error(), "settings.decision_override")

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestApplyError(t *testing.T) {
	t.Parallel()

	cause := errors.New("exit status 1")
	err := NewApplyError("control-plane", "kubeadm-init", cause)

	require.Contains(t, err.Error(), "control-plane")
	require.Contains(t, err.Error(), "kubeadm-init")
	require.ErrorIs(t, err, cause)

	var applyErr *ApplyError
	require.ErrorAs(t, err, &applyErr)
	require.Equal(t, "kubeadm-init", applyErr.Step)
}

func TestVerifyErrorDistinguishesTimeout(t *testing.T) {
	t.Parallel()

	timeout := NewVerifyError("hub", true, "no answer in 300s")
	require.Contains(t, timeout.Error(), "timed out")

	unhealthy := NewVerifyError("hub", false, "health endpoint returned 503")
	require.Contains(t, unhealthy.Error(), "unhealthy")
}

func TestRollbackError(t *testing.T) {
	t.Parallel()

	cause := errors.New("read-only file system")
	err := NewRollbackError("tls", "/var/lib/kubestrap/backups/tls/x", cause)

	require.Contains(t, err.Error(), "backup at /var/lib/kubestrap/backups/tls/x")
	require.ErrorIs(t, err, cause)
}

func TestBackupAndDetectionErrorsUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	require.ErrorIs(t, NewBackupError("hub", cause), cause)
	require.ErrorIs(t, NewDetectionError("hub", cause), cause)
	require.ErrorIs(t, NewPrecheckError("cpu-count", "too few", cause), cause)
	require.ErrorIs(t, NewExecutorError("cni", cause), cause)
}
