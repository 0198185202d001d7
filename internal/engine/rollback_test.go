package engine

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kimama4423/kubestrap/internal/model"
	kuberrors "github.com/kimama4423/kubestrap/pkg/errors"
)

func TestRestoreNilRecord(t *testing.T) {
	t.Parallel()

	err := NewRollbackController(testLogger(t)).Restore(nil)
	require.Error(t, err)

	var rollbackErr *kuberrors.RollbackError
	require.True(t, errors.As(err, &rollbackErr))
}

func TestRestoreMissingSnapshotData(t *testing.T) {
	t.Parallel()

	record := &model.BackupRecord{
		Component: "tls",
		Location:  filepath.Join(t.TempDir(), "gone"),
		Manifest: []model.ManifestEntry{
			{Path: filepath.Join(t.TempDir(), "ca.pem"), Stored: "data/0/ca.pem", Mode: 0o644},
		},
	}

	err := NewRollbackController(testLogger(t)).Restore(record)
	require.Error(t, err)

	var rollbackErr *kuberrors.RollbackError
	require.True(t, errors.As(err, &rollbackErr))
	require.Equal(t, "tls", rollbackErr.Component)
	require.Equal(t, record.Location, rollbackErr.Location)
}
