package matching

import (
	"context"
	"strings"
)

// Verdict is the outcome of a manual disambiguation.
type Verdict int

const (
	// Reject leaves the show unresolved.
	Reject Verdict = iota
	// Accept confirms the proposed candidate.
	Accept
	// Substitute replaces the candidate with a supplied catalog id.
	Substitute
)

func (v Verdict) String() string {
	switch v {
	case Accept:
		return "accept"
	case Substitute:
		return "substitute"
	default:
		return "reject"
	}
}

// Answer is what a Disambiguator returns. SubstituteID is only read when
// Verdict is Substitute.
type Answer struct {
	Verdict      Verdict
	SubstituteID string
}

// Prompt describes a low-confidence match awaiting a decision.
type Prompt struct {
	Folder    string
	Query     string
	Top       Scored
	Threshold int
	Ranked    []Scored
}

// Disambiguator settles matches that scored below the confidence threshold.
type Disambiguator interface {
	Disambiguate(ctx context.Context, prompt Prompt) (Answer, error)
}

// DisambiguatorFunc adapts a function to the Disambiguator interface.
type DisambiguatorFunc func(ctx context.Context, prompt Prompt) (Answer, error)

func (f DisambiguatorFunc) Disambiguate(ctx context.Context, prompt Prompt) (Answer, error) {
	return f(ctx, prompt)
}

// AutoReject declines every low-confidence match. Used for headless scans.
var AutoReject Disambiguator = DisambiguatorFunc(func(context.Context, Prompt) (Answer, error) {
	return Answer{Verdict: Reject}, nil
})

// AutoAccept confirms every low-confidence match.
var AutoAccept Disambiguator = DisambiguatorFunc(func(context.Context, Prompt) (Answer, error) {
	return Answer{Verdict: Accept}, nil
})

// SubstituteAnswer builds an Answer for a manually supplied id. A blank id is
// a rejection.
func SubstituteAnswer(id string) Answer {
	id = strings.TrimSpace(id)
	if id == "" {
		return Answer{Verdict: Reject}
	}
	return Answer{Verdict: Substitute, SubstituteID: id}
}
