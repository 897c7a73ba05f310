package utils

import (
	"context"
	"log/slog"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

type SystemStats struct {
	CPUPercent    float64    `json:"cpu_percent"`
	MemoryPercent float64    `json:"memory_percent"`
	Disk          *DiskStats `json:"disk,omitempty"`
}

type DiskStats struct {
	Path        string  `json:"path"`
	FreeBytes   uint64  `json:"free_bytes"`
	UsedPercent float64 `json:"used_percent"`
}

// GetSystemStats samples CPU and memory without blocking. Disk usage is only
// reported when diskPath is set. Sampling failures are logged and left zero.
func GetSystemStats(ctx context.Context, diskPath string) SystemStats {
	var stats SystemStats

	if percentage, err := cpu.PercentWithContext(ctx, 0, false); err != nil {
		slog.WarnContext(ctx, "error getting CPU usage", "error", err)
	} else if len(percentage) > 0 {
		stats.CPUPercent = percentage[0]
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		slog.WarnContext(ctx, "error getting memory usage", "error", err)
	} else {
		stats.MemoryPercent = vm.UsedPercent
	}

	if diskPath != "" {
		if usage, err := disk.UsageWithContext(ctx, diskPath); err != nil {
			slog.WarnContext(ctx, "error getting disk usage", "path", diskPath, "error", err)
		} else {
			stats.Disk = &DiskStats{
				Path:        diskPath,
				FreeBytes:   usage.Free,
				UsedPercent: usage.UsedPercent,
			}
		}
	}

	return stats
}
