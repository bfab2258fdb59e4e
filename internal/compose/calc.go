package compose

import (
	"fmt"
	"math"
	"sort"
)

// Tolerance is how far a distribution may drift from 1.
const Tolerance = 0.001

// Unbounded is used as the Max of a half-open Clamp range.
var Unbounded = math.Inf(1)

// Range is a blended count range.
type Range struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Typical int `json:"typical"`
}

// BlendRange applies a level multiplier to a base [lo, hi] range.
//
// The typical count is round(((lo+hi)/2) * m). Both bounds are scaled too,
// the lower bound never drops below 1 while the base range is non-empty,
// the upper bound is raised to meet it, and typical always lands inside.
func BlendRange(lo, hi, m float64) Range {
	floor := 0
	if hi > 0 {
		floor = 1
	}
	minC := max(floor, roundInt(lo*m))
	maxC := max(roundInt(hi*m), minC)
	typical := roundInt(((lo + hi) / 2) * m)
	typical = min(max(typical, minC), maxC)
	return Range{Min: minC, Max: maxC, Typical: typical}
}

// SplitEven shares total across n members so the parts sum to total. Earlier
// members receive the remainder.
func SplitEven(total, n int) []int {
	if n <= 0 {
		return nil
	}
	parts := make([]int, n)
	for i := range parts {
		parts[i] = total / n
		if i < total%n {
			parts[i]++
		}
	}
	return parts
}

// ValidDistribution checks that weights cover exactly keys, are all positive
// and sum to 1 within Tolerance.
func ValidDistribution(weights map[string]float64, keys []string) error {
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		seen[k] = true
		if _, ok := weights[k]; !ok {
			return fmt.Errorf("missing weight %q", k)
		}
	}

	var sum float64
	for _, k := range sortedWeightKeys(weights) {
		w := weights[k]
		if len(keys) > 0 && !seen[k] {
			return fmt.Errorf("unexpected weight %q", k)
		}
		if w <= 0 {
			return fmt.Errorf("weight %q is %g, must be positive", k, w)
		}
		sum += w
	}
	if math.Abs(sum-1) > Tolerance {
		return fmt.Errorf("weights sum to %.4f", sum)
	}
	return nil
}

// Sum adds up a weight set.
func Sum(weights map[string]float64) float64 {
	var s float64
	for _, k := range sortedWeightKeys(weights) {
		s += weights[k]
	}
	return s
}

// FillRubric overlays a partial rubric on the prior one. Dimensions the
// overlay omits keep their prior weight; nothing is renormalized.
func FillRubric(prior, overlay Tree) Tree {
	out := make(Tree, len(prior)+len(overlay))
	for k, v := range prior {
		out[k] = v
	}
	for k, v := range overlay {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

// InRange reports whether v lies in the closed range [lo, hi].
func InRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}

// ScaleCount multiplies a count and rounds, never going below floor.
func ScaleCount(v, m float64, floor int) int {
	return max(floor, roundInt(v*m))
}

// AdjustClamp adds delta to base and clamps the result to [lo, hi]. The
// result is rounded to three decimals so thresholds stay readable.
func AdjustClamp(base, delta, lo, hi float64) float64 {
	v := math.Min(hi, math.Max(lo, base+delta))
	return math.Round(v*1000) / 1000
}

func distributionError(v any, keys []string) error {
	obj, ok := v.(Tree)
	if !ok {
		return fmt.Errorf("not an object")
	}
	weights := make(map[string]float64, len(obj))
	for k, raw := range obj {
		f, isNum := toFloat(raw)
		if !isNum {
			return fmt.Errorf("weight %q is not numeric", k)
		}
		weights[k] = f
	}
	return ValidDistribution(weights, keys)
}

// Weights converts a decoded weight object. Non-numeric entries are skipped.
func Weights(v any) map[string]float64 {
	obj, _ := v.(Tree)
	out := make(map[string]float64, len(obj))
	for k, raw := range obj {
		if f, ok := toFloat(raw); ok {
			out[k] = f
		}
	}
	return out
}

func roundInt(f float64) int {
	return int(math.Round(f))
}

func sortedWeightKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
