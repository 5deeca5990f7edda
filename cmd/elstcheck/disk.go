package main

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/deepch/elstcheck/scenario"
)

// minFree is the space a run needs for its vectors, with headroom for
// kept failures.
const minFree = 16 << 20

func checkFreeSpace(dir string) error {
	u, err := disk.Usage(dir)
	if err != nil {
		return fmt.Errorf("checking free space in %s: %w", dir, err)
	}
	scenario.Logger().Debugf("%s: %.1f%% used, %d MiB free", dir, u.UsedPercent, u.Free>>20)
	if u.Free < minFree {
		return fmt.Errorf("%s: only %d bytes free", dir, u.Free)
	}
	return nil
}
