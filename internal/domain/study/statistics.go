package study

import "github.com/phrazzld/transcribe-api/internal/domain"

// Outcome is a single statistics bucket.
type Outcome struct {
	Count int `json:"count"`
}

// AlphabetStatistics aggregates every attempt made on one alphabet.
type AlphabetStatistics struct {
	Total    int                 `json:"total"`
	Outcomes map[string]*Outcome `json:"outcomes"`
}

// Statistics maps alphabet names to their aggregated results.
type Statistics map[string]*AlphabetStatistics

// newStatistics returns zeroed statistics for every registered alphabet.
func newStatistics() Statistics {
	s := make(Statistics)
	for _, name := range domain.Alphabets() {
		s[name] = &AlphabetStatistics{Outcomes: make(map[string]*Outcome)}
	}
	return s
}

// Clone returns a deep copy.
func (s Statistics) Clone() Statistics {
	c := make(Statistics, len(s))
	for name, stat := range s {
		outcomes := make(map[string]*Outcome, len(stat.Outcomes))
		for tag, o := range stat.Outcomes {
			outcomes[tag] = &Outcome{Count: o.Count}
		}
		c[name] = &AlphabetStatistics{Total: stat.Total, Outcomes: outcomes}
	}
	return c
}

// Count returns the count of an outcome for an alphabet, or 0.
func (s Statistics) Count(alphabet, outcome string) int {
	stat, ok := s[alphabet]
	if !ok {
		return 0
	}
	if o, ok := stat.Outcomes[outcome]; ok {
		return o.Count
	}
	return 0
}

// Equivalent reports whether both statistics hold the same totals and the
// same non-zero outcome counts. Zero-count outcomes are ignored because the
// outcome vocabulary only grows: a rebuild does not see tags that were
// retracted earlier.
func (s Statistics) Equivalent(other Statistics) bool {
	return s.covers(other) && other.covers(s)
}

func (s Statistics) covers(other Statistics) bool {
	for name, stat := range s {
		if stat.Total != 0 {
			if o, ok := other[name]; !ok || o.Total != stat.Total {
				return false
			}
		}
		for tag, o := range stat.Outcomes {
			if o.Count != other.Count(name, tag) {
				return false
			}
		}
	}
	return true
}

// OutcomeRegistry is the append-only vocabulary of outcome tags shared by
// every alphabet's outcome map.
type OutcomeRegistry struct {
	tags  []string
	known map[string]struct{}
}

// NewOutcomeRegistry returns an empty registry.
func NewOutcomeRegistry() *OutcomeRegistry {
	return &OutcomeRegistry{known: make(map[string]struct{})}
}

// Register adds tag to the vocabulary and reports whether it was new.
func (r *OutcomeRegistry) Register(tag string) bool {
	if _, ok := r.known[tag]; ok {
		return false
	}
	r.known[tag] = struct{}{}
	r.tags = append(r.tags, tag)
	return true
}

// Tags returns the registered tags in registration order.
func (r *OutcomeRegistry) Tags() []string {
	return append([]string(nil), r.tags...)
}
