// Package sampling draws random numbers for the $rand directive.
//
// A sample is uniform over [0, 1) by default. One bound sets the upper
// end, two bounds set the range. Integer bounds produce integer samples.
// A probability density given as a list of weights splits the range into
// that many equal bins and draws by inverse transform over the bins.
package sampling

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
)

// Source draws samples from its own generator. It is safe for concurrent
// use.
type Source struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Source with a randomly seeded generator.
func New() *Source {
	return &Source{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeeded creates a Source with a deterministic generator, for
// reproducible runs and tests.
func NewSeeded(seed uint64) *Source {
	return &Source{rng: rand.New(rand.NewPCG(seed, seed))}
}

// Sample draws from the range described by args (zero, one, or two
// numeric bounds). A positive n asks for a list of n samples instead of a
// single value; pdf, when non-nil, must be a list of non-negative bin
// weights.
func (s *Source) Sample(args []any, n, pdf any) (any, error) {
	start, stop, ints, err := parseBounds(args)
	if err != nil {
		return nil, err
	}

	count, err := parseCount(n)
	if err != nil {
		return nil, err
	}

	weights, err := parseWeights(pdf)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if count == 0 {
		return s.draw(start, stop, ints, weights), nil
	}

	out := make([]any, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, s.draw(start, stop, ints, weights))
	}

	return out, nil
}

func (s *Source) draw(start, stop float64, ints bool, weights []float64) any {
	x := start + s.unit(weights)*(stop-start)

	if ints {
		return int(math.Floor(x))
	}

	return x
}

// unit draws from [0, 1), uniformly or by inverse transform over equal
// bins weighted by weights.
func (s *Source) unit(weights []float64) float64 {
	if len(weights) == 0 {
		return s.rng.Float64()
	}

	total := 0.0
	for _, w := range weights {
		total += w
	}

	u := s.rng.Float64() * total

	for i, w := range weights {
		if u < w || i == len(weights)-1 {
			return (float64(i) + s.rng.Float64()) / float64(len(weights))
		}

		u -= w
	}

	return s.rng.Float64()
}

func parseBounds(args []any) (start, stop float64, ints bool, err error) {
	start, stop = 0, 1
	ints = len(args) > 0

	bounds := make([]float64, 0, len(args))

	for _, a := range args {
		switch v := a.(type) {
		case int:
			bounds = append(bounds, float64(v))
		case float64:
			bounds = append(bounds, v)
			ints = false
		default:
			return 0, 0, false, fmt.Errorf(
				"sampling bound %v (%T) is not a number", a, a,
			)
		}
	}

	switch len(bounds) {
	case 0:
	case 1:
		stop = bounds[0]
	case 2:
		start, stop = bounds[0], bounds[1]
	default:
		return 0, 0, false, fmt.Errorf(
			"at most two sampling bounds allowed, got %d", len(bounds),
		)
	}

	return start, stop, ints, nil
}

func parseCount(n any) (int, error) {
	switch v := n.(type) {
	case nil:
		return 0, nil
	case int:
		if v < 0 {
			return 0, fmt.Errorf("sample count %d is negative", v)
		}

		return v, nil
	default:
		return 0, fmt.Errorf("sample count %v (%T) is not an integer", n, n)
	}
}

func parseWeights(pdf any) ([]float64, error) {
	if pdf == nil {
		return nil, nil
	}

	list, ok := pdf.([]any)
	if !ok {
		return nil, fmt.Errorf("density %v (%T) is not a list of weights", pdf, pdf)
	}

	if len(list) == 0 {
		return nil, fmt.Errorf("density has no weights")
	}

	weights := make([]float64, 0, len(list))
	total := 0.0

	for _, item := range list {
		var w float64

		switch v := item.(type) {
		case int:
			w = float64(v)
		case float64:
			w = v
		default:
			return nil, fmt.Errorf(
				"density weight %v (%T) is not a number", item, item,
			)
		}

		if w < 0 {
			return nil, fmt.Errorf("density weight %v is negative", w)
		}

		weights = append(weights, w)
		total += w
	}

	if total <= 0 {
		return nil, fmt.Errorf("density weights sum to zero")
	}

	return weights, nil
}
