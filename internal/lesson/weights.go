package lesson

// DefaultInteractiveWeight applies to interactive sections when the policy
// does not name one.
const DefaultInteractiveWeight = 20

// WeightPolicy maps a section kind to its contribution to overall progress.
// Weights need not sum to 100; progress normalizes by the weights present.
type WeightPolicy map[Kind]int

// DefaultWeights is the observed production policy.
var DefaultWeights = WeightPolicy{
	KindIntro:   10,
	KindVideo:   30,
	KindContent: 40,
	KindQuiz:    20,
}

// WeightFor returns the weight for k. Interactive sections fall back to
// DefaultInteractiveWeight; any other missing kind yields 0, which fails
// validation.
func (p WeightPolicy) WeightFor(k Kind) int {
	if w, ok := p[k]; ok {
		return w
	}
	if k == KindInteractive {
		return DefaultInteractiveWeight
	}
	return 0
}
