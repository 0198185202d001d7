package jupyterhubexec

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kimama4423/kubestrap/internal/config"
	"github.com/kimama4423/kubestrap/internal/executor"
	"github.com/kimama4423/kubestrap/internal/logger"
)

func testLog(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(logger.Options{Level: "disabled", Writer: io.Discard})
	require.NoError(t, err)
	return log
}

func newHubExecutor(t *testing.T, cfg *config.JupyterHubComponent) executor.Executor {
	t.Helper()

	exec, err := New(testLog(t))(&config.Component{Name: "hub", Type: "jupyterhub", JupyterHub: cfg})
	require.NoError(t, err)
	return exec
}

func TestFactoryValidation(t *testing.T) {
	t.Parallel()

	factory := New(testLog(t))

	_, err := factory(&config.Component{Name: "hub", Type: "jupyterhub"})
	require.Error(t, err)

	_, err = factory(&config.Component{Name: "hub", Type: "jupyterhub", JupyterHub: &config.JupyterHubComponent{}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "manifest_path is required")
}

func TestPlanShape(t *testing.T) {
	t.Parallel()

	exec := newHubExecutor(t, &config.JupyterHubComponent{ManifestPath: "/etc/kubestrap/jupyterhub"})

	plan, err := exec.Plan(context.Background(), &config.Component{Name: "hub"})
	require.NoError(t, err)
	require.Equal(t, "hub", plan.Component)
	require.Len(t, plan.Steps, 2)
	require.Equal(t, "create-namespace", plan.Steps[0].Name)
	require.Equal(t, "apply-manifests", plan.Steps[1].Name)
}

func TestProbeHealthEndpoint(t *testing.T) {
	t.Parallel()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	exec := newHubExecutor(t, &config.JupyterHubComponent{
		ManifestPath: "/etc/kubestrap/jupyterhub",
		HealthURL:    healthy.URL + "/hub/health",
	})

	ok, detail := exec.Probe(context.Background())
	require.True(t, ok)
	require.Equal(t, "hub healthy", detail)
}

func TestProbeUnhealthyStatus(t *testing.T) {
	t.Parallel()

	sick := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer sick.Close()

	exec := newHubExecutor(t, &config.JupyterHubComponent{
		ManifestPath: "/etc/kubestrap/jupyterhub",
		HealthURL:    sick.URL + "/hub/health",
	})

	ok, detail := exec.Probe(context.Background())
	require.False(t, ok)
	require.Contains(t, detail, "503")
}

func TestProbeUnreachableEndpoint(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	url := server.URL
	server.Close()

	exec := newHubExecutor(t, &config.JupyterHubComponent{
		ManifestPath: "/etc/kubestrap/jupyterhub",
		HealthURL:    url + "/hub/health",
	})

	ok, detail := exec.Probe(context.Background())
	require.False(t, ok)
	require.Contains(t, detail, "unreachable")
}

func TestStatePathsCoverManifests(t *testing.T) {
	t.Parallel()

	exec := newHubExecutor(t, &config.JupyterHubComponent{ManifestPath: "/etc/kubestrap/jupyterhub"})
	require.Equal(t, []string{"/etc/kubestrap/jupyterhub"}, exec.StatePaths())
}
