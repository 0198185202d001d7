// Package checks supplies the built-in prerequisite probes: host
// resources, network reachability, elevated privileges and required
// binaries. Each probe classifies its own outcome; a probe that cannot
// complete reports SeverityError with the cause in the message.
package checks

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/disk"
	"github.com/shirou/gopsutil/mem"

	"github.com/kimama4423/kubestrap/internal/config"
	"github.com/kimama4423/kubestrap/internal/engine"
	"github.com/kimama4423/kubestrap/internal/model"
)

const dialTimeout = 5 * time.Second

// Builtin assembles the ordered checklist from the precheck settings.
// Thresholds left at zero disable the corresponding probe.
func Builtin(p config.Prechecks) []engine.CheckFunc {
	var checklist []engine.CheckFunc

	if p.MinCPUs > 0 {
		checklist = append(checklist, CPUCount(p.MinCPUs))
	}
	if p.MinMemoryMB > 0 {
		checklist = append(checklist, AvailableMemory(p.MinMemoryMB*1024*1024))
	}
	if p.MinDiskGB > 0 {
		path := p.DiskPath
		if path == "" {
			path = "/"
		}
		checklist = append(checklist, FreeDisk(path, p.MinDiskGB*1024*1024*1024))
	}
	if p.RequireRoot {
		checklist = append(checklist, ElevatedPrivileges())
	}
	for _, binary := range p.Binaries {
		checklist = append(checklist, BinaryPresent(binary))
	}
	for _, host := range p.Hosts {
		checklist = append(checklist, HostReachable(host))
	}

	return checklist
}

// CPUCount verifies the host has at least min logical CPUs.
func CPUCount(min int) engine.CheckFunc {
	return func(_ context.Context) model.Check {
		check := model.Check{ID: "cpu-count"}

		count, err := cpu.Counts(true)
		if err != nil {
			check.Severity = model.SeverityError
			check.Message = fmt.Sprintf("could not count CPUs: %v", err)
			return check
		}

		if count < min {
			check.Severity = model.SeverityError
			check.Message = fmt.Sprintf("%d logical CPUs available, %d required", count, min)
			return check
		}

		check.Severity = model.SeverityOK
		check.Message = fmt.Sprintf("%d logical CPUs available", count)
		return check
	}
}

// AvailableMemory verifies at least minBytes of memory is available.
// Falling below twice the threshold is a warning: the install may succeed
// but the cluster will be memory-starved.
func AvailableMemory(minBytes uint64) engine.CheckFunc {
	return func(_ context.Context) model.Check {
		check := model.Check{ID: "available-memory"}

		vm, err := mem.VirtualMemory()
		if err != nil {
			check.Severity = model.SeverityError
			check.Message = fmt.Sprintf("could not read memory stats: %v", err)
			return check
		}

		switch {
		case vm.Available < minBytes:
			check.Severity = model.SeverityError
			check.Message = fmt.Sprintf("%s available, %s required", bytefmt.ByteSize(vm.Available), bytefmt.ByteSize(minBytes))
		case vm.Available < 2*minBytes:
			check.Severity = model.SeverityWarning
			check.Message = fmt.Sprintf("%s available, close to the %s minimum", bytefmt.ByteSize(vm.Available), bytefmt.ByteSize(minBytes))
		default:
			check.Severity = model.SeverityOK
			check.Message = fmt.Sprintf("%s available", bytefmt.ByteSize(vm.Available))
		}
		return check
	}
}

// FreeDisk verifies at least minBytes of free disk at path.
func FreeDisk(path string, minBytes uint64) engine.CheckFunc {
	return func(_ context.Context) model.Check {
		check := model.Check{ID: "free-disk"}

		usage, err := disk.Usage(path)
		if err != nil {
			check.Severity = model.SeverityError
			check.Message = fmt.Sprintf("could not read disk usage for %s: %v", path, err)
			return check
		}

		if usage.Free < minBytes {
			check.Severity = model.SeverityError
			check.Message = fmt.Sprintf("%s free on %s, %s required", bytefmt.ByteSize(usage.Free), path, bytefmt.ByteSize(minBytes))
			return check
		}

		check.Severity = model.SeverityOK
		check.Message = fmt.Sprintf("%s free on %s", bytefmt.ByteSize(usage.Free), path)
		return check
	}
}

// ElevatedPrivileges verifies the process runs as root, which the package
// and service steps need.
func ElevatedPrivileges() engine.CheckFunc {
	return func(_ context.Context) model.Check {
		check := model.Check{ID: "elevated-privileges"}

		if os.Geteuid() != 0 {
			check.Severity = model.SeverityError
			check.Message = "not running as root"
			return check
		}

		check.Severity = model.SeverityOK
		check.Message = "running as root"
		return check
	}
}

// BinaryPresent verifies a required binary is on PATH.
func BinaryPresent(name string) engine.CheckFunc {
	return func(_ context.Context) model.Check {
		check := model.Check{ID: "binary-" + name}

		path, err := exec.LookPath(name)
		if err != nil {
			check.Severity = model.SeverityError
			check.Message = fmt.Sprintf("%s not found on PATH: %v", name, err)
			return check
		}

		check.Severity = model.SeverityOK
		check.Message = fmt.Sprintf("%s found at %s", name, path)
		return check
	}
}

// HostReachable verifies a TCP connection to host:port can be opened.
// Unreachable hosts are a warning, not an error: air-gapped installs can
// proceed from a local mirror.
func HostReachable(hostPort string) engine.CheckFunc {
	return func(ctx context.Context) model.Check {
		check := model.Check{ID: "reach-" + hostPort}

		dialer := net.Dialer{Timeout: dialTimeout}
		conn, err := dialer.DialContext(ctx, "tcp", hostPort)
		if err != nil {
			check.Severity = model.SeverityWarning
			check.Message = fmt.Sprintf("%s unreachable: %v", hostPort, err)
			return check
		}
		_ = conn.Close()

		check.Severity = model.SeverityOK
		check.Message = fmt.Sprintf("%s reachable", hostPort)
		return check
	}
}
