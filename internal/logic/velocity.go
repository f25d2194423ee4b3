package logic

import "time"

// Velocity scales rotation steps by how fast the knob is turned.
// Consecutive quick clicks in one direction climb through the tiers; a pause
// or a change of direction drops back to the finest step.
type Velocity struct {
	tiers   []int
	fastGap time.Duration
	slowGap time.Duration

	started  bool
	lastDir  int
	lastTime time.Time
	tier     int
}

// NewVelocity creates a step controller. Empty tiers fall back to a single
// one-second step.
func NewVelocity(tiers []int, fastGap, slowGap time.Duration) *Velocity {
	if len(tiers) == 0 {
		tiers = []int{1}
	}
	return &Velocity{
		tiers:   append([]int(nil), tiers...),
		fastGap: fastGap,
		slowGap: slowGap,
	}
}

// Step records a rotation in direction dir (+1 or -1) at now and returns the
// signed adjustment in seconds.
func (v *Velocity) Step(dir int, now time.Time) int {
	switch {
	case !v.started:
		v.started = true
		v.tier = 0
	case dir != v.lastDir:
		v.tier = 0
	default:
		gap := now.Sub(v.lastTime)
		if gap < v.fastGap {
			if v.tier < len(v.tiers)-1 {
				v.tier++
			}
		} else if gap > v.slowGap {
			v.tier = 0
		}
	}

	v.lastDir = dir
	v.lastTime = now
	return dir * v.tiers[v.tier]
}

// Tier returns the current tier index.
func (v *Velocity) Tier() int {
	return v.tier
}
