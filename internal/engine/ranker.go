package engine

import "github.com/roach88/vats/internal/device"

// Ranker picks the next device to hand out.
type Ranker struct {
	config Config
}

// NewRanker creates a Ranker over the given priority configuration.
func NewRanker(cfg Config) *Ranker {
	return &Ranker{config: cfg.withDefaults()}
}

// Suggest returns the AVAILABLE device with the smallest
// (effective priority, last used) pair. Ties keep collection order, so the
// same collection always yields the same device. ok is false when nothing
// is available.
func (r *Ranker) Suggest(devices []device.Device) (best device.Device, ok bool) {
	used := UsedAccounts(devices)
	bestIdx := -1
	bestPriority := 0

	for i, d := range devices {
		if StatusOf(d, used) != device.StatusAvailable {
			continue
		}
		p, _ := r.config.EffectivePriority(d)
		if bestIdx < 0 || r.less(p, d, bestPriority, devices[bestIdx]) {
			bestIdx, bestPriority = i, p
		}
	}

	if bestIdx < 0 {
		return device.Device{}, false
	}
	return devices[bestIdx].Clone(), true
}

// less is the strict (priority, last used) ordering. Equal pairs are not
// less, which keeps the earlier record on ties.
func (r *Ranker) less(p int, d device.Device, bestP int, best device.Device) bool {
	if p != bestP {
		return p < bestP
	}
	return d.LastUsed.Before(best.LastUsed)
}
