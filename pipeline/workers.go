package pipeline

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
)

// autoWorkers picks a page-processing concurrency from CPU count, capped
// by available memory. A rendered broadsheet page at 300 DPI plus its
// working buffers runs to a few hundred megabytes, so the cap keeps a big
// edition from swapping on small machines.
func autoWorkers(dpi int) int {
	workers := runtime.NumCPU()

	if limit := memoryCap(dpi); limit > 0 && limit < workers {
		workers = limit
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// memoryCap estimates how many pages fit in available memory at once.
// Returns 0 when memory statistics are unavailable.
func memoryCap(dpi int) int {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0
	}

	// Broadsheet page area scaled to the render DPI, RGBA, with headroom
	// for the threshold/edge buffers contour detection allocates.
	const broadsheetSquareInches = 15.0 * 22.0
	pixels := broadsheetSquareInches * float64(dpi) * float64(dpi)
	perPage := uint64(pixels * 4 * 3)
	if perPage == 0 {
		return 0
	}

	return int(vm.Available / perPage)
}
