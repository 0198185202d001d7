package config

import (
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kimama4423/kubestrap/internal/model"
)

// Config represents the full kubestrap run configuration document.
type Config struct {
	Version     string      `yaml:"version" validate:"required,semver"`
	Name        string      `yaml:"name" validate:"required,min=1,max=100"`
	Description string      `yaml:"description,omitempty"`
	Settings    Settings    `yaml:"settings,omitempty"`
	Components  []Component `yaml:"components" validate:"required,min=1,dive"`
}

// Settings holds global execution parameters and the decision policy.
type Settings struct {
	BackupRoot        string    `yaml:"backup_root,omitempty"`
	ReportDir         string    `yaml:"report_dir,omitempty"`
	NonInteractive    bool      `yaml:"non_interactive,omitempty"`
	DecisionOverride  string    `yaml:"decision_override,omitempty"`
	CheckSeverityGate string    `yaml:"check_severity_gate,omitempty"`
	VerifyTimeout     int       `yaml:"verify_timeout,omitempty" validate:"omitempty,min=0,max=86400"`
	VerifyInterval    int       `yaml:"verify_interval,omitempty" validate:"omitempty,min=1,max=3600"`
	Verbose           bool      `yaml:"verbose,omitempty"`
	Prechecks         Prechecks `yaml:"prechecks,omitempty"`
}

// Prechecks configures the built-in prerequisite probes.
type Prechecks struct {
	MinCPUs     int      `yaml:"min_cpus,omitempty" validate:"omitempty,min=1"`
	MinMemoryMB uint64   `yaml:"min_memory_mb,omitempty"`
	MinDiskGB   uint64   `yaml:"min_disk_gb,omitempty"`
	DiskPath    string   `yaml:"disk_path,omitempty"`
	Hosts       []string `yaml:"hosts,omitempty" validate:"omitempty,dive,hostname_port"`
	Binaries    []string `yaml:"binaries,omitempty" validate:"omitempty,dive,min=1"`
	RequireRoot bool     `yaml:"require_root,omitempty"`
}

// Policy is the resolved, typed decision policy handed to the engine.
type Policy struct {
	NonInteractive    bool
	DecisionOverride  model.Decision
	CheckSeverityGate model.Severity
	VerifyTimeout     time.Duration
	VerifyInterval    time.Duration
}

// Policy converts the raw settings into the engine policy, applying the
// documented defaults (gate ERROR, 300s timeout, 5s interval).
func (s Settings) Policy() (Policy, error) {
	p := Policy{
		NonInteractive:    s.NonInteractive,
		CheckSeverityGate: model.SeverityError,
		VerifyTimeout:     300 * time.Second,
		VerifyInterval:    5 * time.Second,
	}

	if s.DecisionOverride != "" {
		decision, err := model.ParseDecision(s.DecisionOverride)
		if err != nil {
			return Policy{}, err
		}
		p.DecisionOverride = decision
	}
	if s.CheckSeverityGate != "" {
		gate := model.Severity(s.CheckSeverityGate)
		p.CheckSeverityGate = gate
	}
	if s.VerifyTimeout > 0 {
		p.VerifyTimeout = time.Duration(s.VerifyTimeout) * time.Second
	}
	if s.VerifyInterval > 0 {
		p.VerifyInterval = time.Duration(s.VerifyInterval) * time.Second
	}

	return p, nil
}

// Component describes one entry of the provisioning sequence.
type Component struct {
	Name           string   `yaml:"name" validate:"required,component_name"`
	Type           string   `yaml:"type" validate:"required,oneof=containerd kubeadm cni registry tls monitoring jupyterhub"`
	DesiredVersion string   `yaml:"desired_version,omitempty"`
	StatePaths     []string `yaml:"state_paths,omitempty"`

	Containerd *ContainerdComponent `yaml:",inline,omitempty"`
	Kubeadm    *KubeadmComponent    `yaml:",inline,omitempty"`
	CNI        *CNIComponent        `yaml:",inline,omitempty"`
	Registry   *RegistryComponent   `yaml:",inline,omitempty"`
	TLS        *TLSComponent        `yaml:",inline,omitempty"`
	Monitoring *MonitoringComponent `yaml:",inline,omitempty"`
	JupyterHub *JupyterHubComponent `yaml:",inline,omitempty"`
}

// UnmarshalYAML customises component decoding to populate type-specific
// structures without conflicts.
func (c *Component) UnmarshalYAML(value *yaml.Node) error {
	type baseComponent struct {
		Name           string   `yaml:"name"`
		Type           string   `yaml:"type"`
		DesiredVersion string   `yaml:"desired_version"`
		StatePaths     []string `yaml:"state_paths"`
	}

	var base baseComponent
	if err := value.Decode(&base); err != nil {
		return err
	}

	c.Name = base.Name
	c.Type = base.Type
	c.DesiredVersion = base.DesiredVersion
	c.StatePaths = append([]string(nil), base.StatePaths...)

	c.Containerd = nil
	c.Kubeadm = nil
	c.CNI = nil
	c.Registry = nil
	c.TLS = nil
	c.Monitoring = nil
	c.JupyterHub = nil

	switch base.Type {
	case "containerd":
		var section ContainerdComponent
		if err := value.Decode(&section); err != nil {
			return err
		}
		c.Containerd = &section
	case "kubeadm":
		var section KubeadmComponent
		if err := value.Decode(&section); err != nil {
			return err
		}
		c.Kubeadm = &section
	case "cni":
		var section CNIComponent
		if err := value.Decode(&section); err != nil {
			return err
		}
		c.CNI = &section
	case "registry":
		var section RegistryComponent
		if err := value.Decode(&section); err != nil {
			return err
		}
		c.Registry = &section
	case "tls":
		var section TLSComponent
		if err := value.Decode(&section); err != nil {
			return err
		}
		c.TLS = &section
	case "monitoring":
		var section MonitoringComponent
		if err := value.Decode(&section); err != nil {
			return err
		}
		c.Monitoring = &section
	case "jupyterhub":
		var section JupyterHubComponent
		if err := value.Decode(&section); err != nil {
			return err
		}
		c.JupyterHub = &section
	}

	return nil
}

// ContainerdComponent installs and configures the container runtime.
type ContainerdComponent struct {
	ConfigPath   string `yaml:"config_path,omitempty"`
	SandboxImage string `yaml:"sandbox_image,omitempty"`
	Service      string `yaml:"service,omitempty"`
}

// KubeadmComponent initialises the single-node control plane.
type KubeadmComponent struct {
	PodNetworkCIDR   string `yaml:"pod_network_cidr,omitempty" validate:"omitempty,cidr"`
	AdvertiseAddress string `yaml:"advertise_address,omitempty" validate:"omitempty,ip"`
	KubeconfigPath   string `yaml:"kubeconfig_path,omitempty"`
	// SchedulableControlPlane removes the control-plane taint so workloads
	// run on the single node.
	SchedulableControlPlane bool `yaml:"schedulable_control_plane,omitempty"`
}

// CNIComponent applies a CNI plugin manifest.
type CNIComponent struct {
	ManifestURL string `yaml:"manifest_url" validate:"omitempty,url"`
	Kubeconfig  string `yaml:"kubeconfig,omitempty"`
}

// RegistryComponent stands up the local image registry.
type RegistryComponent struct {
	Port       int    `yaml:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	DataDir    string `yaml:"data_dir,omitempty"`
	Namespace  string `yaml:"namespace,omitempty"`
	Kubeconfig string `yaml:"kubeconfig,omitempty"`
}

// TLSComponent generates CA and server certificate material.
type TLSComponent struct {
	Dir          string   `yaml:"dir,omitempty"`
	CommonName   string   `yaml:"common_name,omitempty"`
	Hosts        []string `yaml:"hosts,omitempty"`
	ValidityDays int      `yaml:"validity_days,omitempty" validate:"omitempty,min=1,max=7300"`
}

// MonitoringComponent deploys the monitoring/alerting/logging manifests
// from a pinned git repository.
type MonitoringComponent struct {
	RepoURL    string `yaml:"repo_url" validate:"omitempty,url"`
	Ref        string `yaml:"ref,omitempty"`
	Path       string `yaml:"path,omitempty"`
	CloneDir   string `yaml:"clone_dir,omitempty"`
	Kubeconfig string `yaml:"kubeconfig,omitempty"`
}

// JupyterHubComponent deploys the hub and probes its health endpoint.
type JupyterHubComponent struct {
	Namespace    string `yaml:"namespace,omitempty"`
	ManifestPath string `yaml:"manifest_path,omitempty"`
	HealthURL    string `yaml:"health_url,omitempty" validate:"omitempty,url"`
	Kubeconfig   string `yaml:"kubeconfig,omitempty"`
}

// ComponentMap builds a lookup table for components by name.
func ComponentMap(components []Component) map[string]Component {
	out := make(map[string]Component, len(components))
	for _, c := range components {
		out[c.Name] = c
	}
	return out
}
