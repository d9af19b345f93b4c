// Package analysis computes post-run statistics from recorded
// trajectories: the area enclosed by the hysteresis loop, how often
// each branch of the characteristic was active, and the width of the
// dead zone over the run.
package analysis

import "github.com/hysterlab/blash/internal/sim"

// RegimeCounts tallies how many samples of a run sat on each branch.
// A sample is on the lower branch when the input reached or crossed
// the lower switching boundary, on the upper branch for the upper
// boundary, and holding otherwise.
type RegimeCounts struct {
	Lower int
	Upper int
	Hold  int
}

// Total returns the number of classified samples.
func (c RegimeCounts) Total() int {
	return c.Lower + c.Upper + c.Hold
}

// ClassifyRegimes classifies every sample of channel ch against the
// switching boundaries recorded alongside it. The boundaries stored
// at sample i are the ones that were in force when input i arrived,
// so the classification reproduces the branch taken at that step.
func ClassifyRegimes(result *sim.Result, ch int) RegimeCounts {
	var counts RegimeCounts
	if result == nil {
		return counts
	}
	for i := range result.Times {
		u := result.Inputs[i][ch]
		switch {
		case u <= result.ZLo[i][ch]:
			counts.Lower++
		case u >= result.ZUp[i][ch]:
			counts.Upper++
		default:
			counts.Hold++
		}
	}
	return counts
}

// LoopArea returns the signed area enclosed by the (u, x) trajectory
// of channel ch, computed with the shoelace formula over the recorded
// samples treated as a closed polygon. For a periodic input driving
// the model around its loop, the magnitude is proportional to the
// energy dissipated per traversal; it is zero when the trajectory
// collapses onto a line, as it does without a dead zone.
func LoopArea(result *sim.Result, ch int) float64 {
	if result == nil || len(result.Times) < 3 {
		return 0
	}
	n := len(result.Times)
	area := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += result.Inputs[i][ch]*result.Outputs[j][ch] -
			result.Inputs[j][ch]*result.Outputs[i][ch]
	}
	return area / 2
}

// GapStats describes the dead-zone width z_up - z_lo over a run.
type GapStats struct {
	Min  float64
	Max  float64
	Mean float64
}

// DeadZoneStats summarizes the dead-zone width of channel ch. With
// constant parameters the width is constant in the input coordinate
// only when both slopes are equal; otherwise it varies with the held
// output, which is what these statistics surface.
func DeadZoneStats(result *sim.Result, ch int) GapStats {
	var stats GapStats
	if result == nil || len(result.Times) == 0 {
		return stats
	}
	sum := 0.0
	for i := range result.Times {
		gap := result.ZUp[i][ch] - result.ZLo[i][ch]
		if i == 0 || gap < stats.Min {
			stats.Min = gap
		}
		if i == 0 || gap > stats.Max {
			stats.Max = gap
		}
		sum += gap
	}
	stats.Mean = sum / float64(len(result.Times))
	return stats
}
