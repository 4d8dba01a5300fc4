package crawlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// ErrInsufficientMemory 可用内存不足以启动浏览器
var ErrInsufficientMemory = errors.New("可用内存不足")

const mb = 1024 * 1024

// ResourceSnapshot 一次系统资源采样
type ResourceSnapshot struct {
	TotalMemory     uint64  // 系统总内存(字节)
	AvailableMemory uint64  // 可用内存(字节)
	CPUPercent      float64 // 采样窗口内的CPU使用率
}

// ResourceMonitor 启动浏览器前的资源检查
type ResourceMonitor struct {
	minAvailable uint64
	cpuWindow    time.Duration
}

// NewResourceMonitor minAvailableMB 为启动浏览器所需的最小可用内存(MB), 0表示不检查
func NewResourceMonitor(minAvailableMB int) *ResourceMonitor {
	if minAvailableMB < 0 {
		minAvailableMB = 0
	}
	return &ResourceMonitor{
		minAvailable: uint64(minAvailableMB) * mb,
		cpuWindow:    100 * time.Millisecond,
	}
}

// Snapshot 采样内存与CPU
func (rm *ResourceMonitor) Snapshot() (ResourceSnapshot, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return ResourceSnapshot{}, fmt.Errorf("获取系统内存失败: %w", err)
	}

	snap := ResourceSnapshot{
		TotalMemory:     vm.Total,
		AvailableMemory: vm.Available,
	}

	// CPU采样失败不影响内存检查
	if percents, err := cpu.Percent(rm.cpuWindow, false); err == nil && len(percents) > 0 {
		snap.CPUPercent = percents[0]
	} else if err != nil {
		log.Warn().Err(err).Msg("获取CPU使用率失败")
	}
	return snap, nil
}

// Preflight 可用内存低于阈值时返回 ErrInsufficientMemory
func (rm *ResourceMonitor) Preflight() (ResourceSnapshot, error) {
	snap, err := rm.Snapshot()
	if err != nil {
		if rm.minAvailable == 0 {
			log.Warn().Err(err).Msg("资源检查失败,继续启动")
			return snap, nil
		}
		return snap, err
	}

	log.Info().Msgf("系统内存: 可用 %.0f MB / 总计 %.0f MB, CPU %.1f%%",
		float64(snap.AvailableMemory)/mb, float64(snap.TotalMemory)/mb, snap.CPUPercent)

	if rm.minAvailable > 0 && snap.AvailableMemory < rm.minAvailable {
		return snap, fmt.Errorf("%w: 可用 %d MB, 需要至少 %d MB",
			ErrInsufficientMemory, snap.AvailableMemory/mb, rm.minAvailable/mb)
	}
	return snap, nil
}
