package diag

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/process"
)

// Resources is a snapshot of the simulator process's own CPU and memory
// footprint, printed in the end-of-run banner when disassembly is enabled.
type Resources struct {
	CPUPercent float64
	MemoryRSS  uint64
}

// CollectResources samples the current process, the teacher's own
// listResources handler adapted from an HTTP response into a direct call.
func CollectResources() (Resources, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return Resources{}, fmt.Errorf("diag: resources: %w", err)
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		return Resources{}, fmt.Errorf("diag: resources: %w", err)
	}

	mem, err := proc.MemoryInfo()
	if err != nil {
		return Resources{}, fmt.Errorf("diag: resources: %w", err)
	}

	return Resources{CPUPercent: cpuPercent, MemoryRSS: mem.RSS}, nil
}

// String renders the snapshot for the end-of-run banner.
func (r Resources) String() string {
	return fmt.Sprintf("cpu=%.1f%% rss=%dKB", r.CPUPercent, r.MemoryRSS/1024)
}
