package progress

import (
	"fmt"
	"math"

	"github.com/abhisek/mathportal/internal/errs"
	"github.com/abhisek/mathportal/internal/lesson"
)

// ComputePercent returns the weighted completion percentage in [0,100].
// A completed section contributes its full weight, a partially credited one
// fraction × weight, anything else nothing. The sum is normalized by the
// total weight of the sections present. An empty section list yields 0; a
// non-positive weight is a *errs.ConfigurationError.
func ComputePercent(sections []lesson.Section, st *State) (int, error) {
	if len(sections) == 0 {
		return 0, nil
	}

	var credit, total float64
	for _, s := range sections {
		if s.Weight <= 0 {
			return 0, errs.Configf(fmt.Sprintf("sections[%d].Weight", s.ID), "weight %d for %s must be positive", s.Weight, s.Kind)
		}
		w := float64(s.Weight)
		total += w
		switch {
		case st.IsCompleted(s.ID):
			credit += w
		case st != nil && s.Kind.SupportsPartialCredit():
			credit += clamp01(st.Partial[s.ID]) * w
		}
	}

	pct := math.Round(math.Min(100, 100*credit/total))
	return int(pct), nil
}

func clamp01(f float64) float64 {
	switch {
	case math.IsNaN(f) || f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// EstimateCompleted returns the number of leading sections to treat as done
// when only a percentage is known: round(percent/100 × n), bounded to [0,n].
// The mapping is lossy; it can credit the wrong sections.
func EstimateCompleted(percent, n int) int {
	if percent <= 0 || n <= 0 {
		return 0
	}
	k := int(math.Round(float64(percent) / 100 * float64(n)))
	if k > n {
		k = n
	}
	return k
}
