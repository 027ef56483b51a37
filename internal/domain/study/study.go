// Package study implements the aggregation engine of the transcription
// study: the set of live submissions, one per user, and the statistics
// derived from them.
//
// Statistics are a materialized view of the submissions. Add keeps them up
// to date incrementally by retracting a user's previous contribution before
// applying the new one; BuildStatistics recomputes them from scratch. Both
// paths produce the same counts for the same set of submissions, whatever
// order they were folded in.
//
// A Study is not safe for concurrent use. Callers serialize access, see
// service.StudyService.
package study

import (
	"encoding/json"
	"sort"

	"github.com/phrazzld/transcribe-api/internal/domain"
)

// Study holds the current submissions and their aggregated statistics.
type Study struct {
	submissions map[string]*domain.Submission
	statistics  Statistics
	outcomes    *OutcomeRegistry
}

// New creates a Study over the given submissions, keyed by user, and builds
// its statistics. The map is taken over by the Study.
func New(submissions map[string]*domain.Submission) *Study {
	if submissions == nil {
		submissions = make(map[string]*domain.Submission)
	}
	s := &Study{submissions: submissions}
	s.BuildStatistics()
	return s
}

// Add stores submission as its user's live submission. A previous
// submission by the same user is retracted from the statistics first.
func (s *Study) Add(submission *domain.Submission) (replaced bool) {
	if old, ok := s.submissions[submission.User]; ok {
		s.UpdateStatistics(old, -1)
		replaced = true
	}
	s.UpdateStatistics(submission, +1)
	s.submissions[submission.User] = submission
	return replaced
}

// UpdateStatistics adds sign times the contribution of submission to the
// statistics. sign is +1 to apply a submission and -1 to retract it.
func (s *Study) UpdateStatistics(submission *domain.Submission, sign int) {
	s.registerOutcome(domain.OutcomeNoError)
	for _, e := range submission.Errors {
		s.registerOutcome(e.Type())
	}

	errorCounts := make(map[string]int)
	for _, e := range submission.Errors {
		stat, ok := s.statistics[e.Challenge.Alphabet]
		if !ok {
			continue
		}
		stat.Outcomes[e.Type()].Count += sign
		errorCounts[e.Challenge.Alphabet]++
	}

	for _, name := range domain.Alphabets() {
		stat := s.statistics[name]
		total := submission.Total[name]
		stat.Outcomes[domain.OutcomeNoError].Count += sign * (total - errorCounts[name])
		stat.Total += sign * total
	}
}

// registerOutcome adds tag to the shared vocabulary, giving every alphabet a
// zero bucket for it the first time it is seen.
func (s *Study) registerOutcome(tag string) {
	if !s.outcomes.Register(tag) {
		return
	}
	for _, stat := range s.statistics {
		stat.Outcomes[tag] = &Outcome{}
	}
}

// ResetStatistics zeroes every counter and clears the outcome vocabulary.
func (s *Study) ResetStatistics() {
	s.statistics = newStatistics()
	s.outcomes = NewOutcomeRegistry()
}

// BuildStatistics recomputes the statistics from the stored submissions.
func (s *Study) BuildStatistics() {
	s.ResetStatistics()
	for _, user := range s.Users() {
		s.UpdateStatistics(s.submissions[user], +1)
	}
}

// Statistics returns a copy of the current statistics.
func (s *Study) Statistics() Statistics {
	return s.statistics.Clone()
}

// Outcomes returns the outcome vocabulary in the order tags were first seen.
func (s *Study) Outcomes() []string {
	return s.outcomes.Tags()
}

// Submission returns the live submission of user.
func (s *Study) Submission(user string) (*domain.Submission, bool) {
	sub, ok := s.submissions[user]
	return sub, ok
}

// Submissions returns a shallow copy of the submissions map.
func (s *Study) Submissions() map[string]*domain.Submission {
	c := make(map[string]*domain.Submission, len(s.submissions))
	for user, sub := range s.submissions {
		c[user] = sub
	}
	return c
}

// Users returns the users with a live submission, sorted.
func (s *Study) Users() []string {
	users := make([]string, 0, len(s.submissions))
	for user := range s.submissions {
		users = append(users, user)
	}
	sort.Strings(users)
	return users
}

// Len returns the number of live submissions.
func (s *Study) Len() int {
	return len(s.submissions)
}

type studyJSON struct {
	Submissions map[string]*domain.Submission `json:"submissions"`
	Statistics  Statistics                    `json:"statistics,omitempty"`
}

// MarshalJSON encodes the Study as {submissions, statistics}.
func (s *Study) MarshalJSON() ([]byte, error) {
	return json.Marshal(studyJSON{Submissions: s.submissions, Statistics: s.statistics})
}

// Decode restores a Study from its JSON encoding. Only submissions are read;
// statistics are rebuilt. Stored submissions that no longer validate are
// skipped and their users returned.
func Decode(data []byte) (*Study, []string, error) {
	var raw studyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, err
	}

	submissions := make(map[string]*domain.Submission, len(raw.Submissions))
	var skipped []string
	for key, sub := range raw.Submissions {
		if sub == nil || len(sub.Validate()) > 0 {
			skipped = append(skipped, key)
			continue
		}
		submissions[sub.User] = sub
	}
	sort.Strings(skipped)
	return New(submissions), skipped, nil
}
