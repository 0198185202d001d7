package tlsexec

import (
	"context"
	"crypto/x509"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kimama4423/kubestrap/internal/config"
	"github.com/kimama4423/kubestrap/internal/executor"
	"github.com/kimama4423/kubestrap/internal/logger"
)

func newTLSExecutor(t *testing.T, cfg *config.TLSComponent) executor.Executor {
	t.Helper()

	log, err := logger.New(logger.Options{Level: "disabled", Writer: io.Discard})
	require.NoError(t, err)

	exec, err := New(log)(&config.Component{Name: "tls", Type: "tls", TLS: cfg})
	require.NoError(t, err)
	return exec
}

func TestNewRequiresSection(t *testing.T) {
	t.Parallel()

	log, err := logger.New(logger.Options{Level: "disabled", Writer: io.Discard})
	require.NoError(t, err)

	_, err = New(log)(&config.Component{Name: "tls", Type: "tls"})
	require.Error(t, err)
}

func TestApplyGeneratesCertificateChain(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	exec := newTLSExecutor(t, &config.TLSComponent{
		Dir:          dir,
		CommonName:   "hub.local",
		Hosts:        []string{"127.0.0.1", "jupyter.local"},
		ValidityDays: 30,
	})

	ctx := context.Background()
	plan, err := exec.Plan(ctx, &config.Component{Name: "tls"})
	require.NoError(t, err)
	require.Len(t, plan.Steps, 2)
	require.NoError(t, exec.Apply(ctx, plan))

	for _, name := range []string{"ca.crt", "ca.key", "server.crt", "server.key"} {
		require.FileExists(t, filepath.Join(dir, name))
	}

	// Keys stay private.
	for _, name := range []string{"ca.key", "server.key"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	serverCert, err := readCertificate(filepath.Join(dir, "server.crt"))
	require.NoError(t, err)
	require.Equal(t, "hub.local", serverCert.Subject.CommonName)
	require.Contains(t, serverCert.DNSNames, "jupyter.local")
	require.Len(t, serverCert.IPAddresses, 1)

	// The server certificate chains to the generated CA.
	caCert, err := readCertificate(filepath.Join(dir, "ca.crt"))
	require.NoError(t, err)
	pool := x509.NewCertPool()
	pool.AddCert(caCert)
	_, err = serverCert.Verify(x509.VerifyOptions{Roots: pool, KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}})
	require.NoError(t, err)
}

func TestApplyIsIdempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	exec := newTLSExecutor(t, &config.TLSComponent{Dir: dir, ValidityDays: 30})

	ctx := context.Background()
	plan, err := exec.Plan(ctx, &config.Component{Name: "tls"})
	require.NoError(t, err)
	require.NoError(t, exec.Apply(ctx, plan))

	before, err := os.ReadFile(filepath.Join(dir, "server.crt"))
	require.NoError(t, err)

	// Postconditions hold, so a re-run must not reissue anything.
	plan, err = exec.Plan(ctx, &config.Component{Name: "tls"})
	require.NoError(t, err)
	require.NoError(t, exec.Apply(ctx, plan))

	after, err := os.ReadFile(filepath.Join(dir, "server.crt"))
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestProbeAndVersionLifecycle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	exec := newTLSExecutor(t, &config.TLSComponent{Dir: dir, ValidityDays: 30})
	ctx := context.Background()

	// Nothing generated yet: version probe errors, health probe fails.
	_, err := exec.CurrentVersion(ctx)
	require.Error(t, err)
	healthy, _ := exec.Probe(ctx)
	require.False(t, healthy)

	plan, err := exec.Plan(ctx, &config.Component{Name: "tls"})
	require.NoError(t, err)
	require.NoError(t, exec.Apply(ctx, plan))

	version, err := exec.CurrentVersion(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, version)

	healthy, detail := exec.Probe(ctx)
	require.True(t, healthy)
	require.Contains(t, detail, "valid until")
}

func TestStatePathsCoverMaterialDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	exec := newTLSExecutor(t, &config.TLSComponent{Dir: dir})
	require.Equal(t, []string{dir}, exec.StatePaths())
}
