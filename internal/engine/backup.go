package engine

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kimama4423/kubestrap/internal/logger"
	"github.com/kimama4423/kubestrap/internal/model"
	kuberrors "github.com/kimama4423/kubestrap/pkg/errors"
)

// backupTimestampLayout includes nanoseconds so two snapshots taken within
// the same run always land in distinct locations.
const backupTimestampLayout = "20060102T150405.000000000Z"

const manifestFileName = "manifest.yaml"

// BackupManager snapshots a component's persisted state into a
// timestamped, namespaced location under the backup root. Records are
// read-only after creation.
type BackupManager struct {
	root string
	log  *logger.Logger
}

// NewBackupManager creates a backup manager rooted at the given directory.
func NewBackupManager(root string, log *logger.Logger) *BackupManager {
	return &BackupManager{root: root, log: log}
}

// Snapshot captures the supplied paths into
// <root>/<component>/<timestamp>/. The operation is atomic from the
// caller's perspective: the snapshot is staged in a scratch directory and
// renamed into place only after every path and the manifest are written,
// so a partial copy never becomes a BackupRecord.
func (m *BackupManager) Snapshot(ctx context.Context, component string, paths []string) (*model.BackupRecord, error) {
	if component == "" {
		return nil, kuberrors.NewBackupError(component, fmt.Errorf("component name is empty"))
	}

	createdAt := time.Now().UTC()
	location := filepath.Join(m.root, component, createdAt.Format(backupTimestampLayout))
	staging := location + ".partial"

	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, kuberrors.NewBackupError(component, err)
	}

	record := &model.BackupRecord{
		Component: component,
		CreatedAt: createdAt,
		Location:  location,
	}

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			_ = os.RemoveAll(staging)
			return nil, kuberrors.NewBackupError(component, err)
		}

		entries, err := capturePath(staging, strconv.Itoa(i), path)
		if err != nil {
			_ = os.RemoveAll(staging)
			return nil, kuberrors.NewBackupError(component, err)
		}
		record.Manifest = append(record.Manifest, entries...)
	}

	if err := writeManifest(staging, record); err != nil {
		_ = os.RemoveAll(staging)
		return nil, kuberrors.NewBackupError(component, err)
	}

	if err := os.Rename(staging, location); err != nil {
		_ = os.RemoveAll(staging)
		return nil, kuberrors.NewBackupError(component, err)
	}

	m.log.WithFields(map[string]any{
		"component": component,
		"location":  location,
		"entries":   len(record.Manifest),
	}).Info("snapshot complete")

	return record, nil
}

// capturePath copies one configured path (file or directory tree) into the
// staging directory. A path that does not exist is skipped: components are
// allowed to own paths they have not materialised yet.
func capturePath(staging, key, path string) ([]model.ManifestEntry, error) {
	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		stored := filepath.Join("data", key, filepath.Base(path))
		if err := copyFile(path, filepath.Join(staging, stored), info.Mode()); err != nil {
			return nil, err
		}
		return []model.ManifestEntry{{
			Path:   path,
			Stored: stored,
			Mode:   uint32(info.Mode().Perm()),
		}}, nil
	}

	var entries []model.ManifestEntry
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}
		stored := filepath.Join("data", key, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		if d.IsDir() {
			if err := os.MkdirAll(filepath.Join(staging, stored), 0o755); err != nil {
				return err
			}
			entries = append(entries, model.ManifestEntry{
				Path:   p,
				Stored: stored,
				Mode:   uint32(info.Mode().Perm()),
				Dir:    true,
			})
			return nil
		}

		if err := copyFile(p, filepath.Join(staging, stored), info.Mode()); err != nil {
			return err
		}
		entries = append(entries, model.ManifestEntry{
			Path:   p,
			Stored: stored,
			Mode:   uint32(info.Mode().Perm()),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func writeManifest(dir string, record *model.BackupRecord) error {
	data, err := yaml.Marshal(record)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, manifestFileName), data, 0o644)
}

func copyFile(src, dst string, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	// O_CREATE applies the mode only to files it creates; overwriting an
	// existing destination must still end with the recorded permissions.
	return os.Chmod(dst, mode.Perm())
}
