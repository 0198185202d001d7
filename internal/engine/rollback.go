package engine

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kimama4423/kubestrap/internal/logger"
	"github.com/kimama4423/kubestrap/internal/model"
	kuberrors "github.com/kimama4423/kubestrap/pkg/errors"
)

// RollbackController restores the most recent snapshot after a verified
// failure. A failed restore is terminal: the engine never attempts a
// nested rollback of a rollback, so the error surfaces as a
// manual-recovery condition.
type RollbackController struct {
	log *logger.Logger
}

// NewRollbackController creates a rollback controller.
func NewRollbackController(log *logger.Logger) *RollbackController {
	return &RollbackController{log: log}
}

// Restore writes the captured manifest back verbatim: directories are
// recreated first, then file contents and modes. Paths outside the
// manifest are left untouched.
func (c *RollbackController) Restore(record *model.BackupRecord) error {
	if record == nil {
		return kuberrors.NewRollbackError("", "", fmt.Errorf("backup record is nil"))
	}

	for _, entry := range record.Manifest {
		if !entry.Dir {
			continue
		}
		if err := os.MkdirAll(entry.Path, fs.FileMode(entry.Mode)); err != nil {
			return kuberrors.NewRollbackError(record.Component, record.Location, err)
		}
	}

	for _, entry := range record.Manifest {
		if entry.Dir {
			continue
		}
		src := filepath.Join(record.Location, entry.Stored)
		if err := copyFile(src, entry.Path, fs.FileMode(entry.Mode)); err != nil {
			return kuberrors.NewRollbackError(record.Component, record.Location, err)
		}
	}

	c.log.WithFields(map[string]any{
		"component": record.Component,
		"location":  record.Location,
		"entries":   len(record.Manifest),
	}).Info("restore complete")

	return nil
}
