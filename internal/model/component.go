package model

// DetectedState classifies what the state detector observed for a
// component. It is recomputed fresh on every run and never cached across
// invocations.
type DetectedState string

const (
	// StateAbsent means the component could not be observed at all. Probe
	// failures (missing binary, permission denied) also map here so that
	// "cannot observe" defaults to the least disruptive path: a clean install.
	StateAbsent DetectedState = "absent"
	// StatePresentCompatible means the component is installed at a version
	// compatible with the desired one.
	StatePresentCompatible DetectedState = "present-compatible"
	// StatePresentIncompatible means the component is installed at a version
	// that does not satisfy the desired one.
	StatePresentIncompatible DetectedState = "present-incompatible"
	// StatePresentUnknown means the component responded but its version could
	// not be parsed. This forces an explicit decision instead of a silent
	// overwrite.
	StatePresentUnknown DetectedState = "present-unknown"
)

// Present reports whether the detector observed an existing installation.
func (s DetectedState) Present() bool {
	return s != StateAbsent && s != ""
}

// Component carries the per-run lifecycle data for a single provisioned
// component. Each instance is owned exclusively by the orchestrator
// invocation that created it.
type Component struct {
	Name             string        `yaml:"name"`
	Type             string        `yaml:"type"`
	DesiredVersion   string        `yaml:"desired_version,omitempty"`
	InstalledVersion string        `yaml:"installed_version,omitempty"`
	DetectedState    DetectedState `yaml:"detected_state,omitempty"`
}
