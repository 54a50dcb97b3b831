package matching

import (
	"context"
	"fmt"
	"log/slog"

	"showaudit/internal/catalog"
	"showaudit/internal/logging"
	"showaudit/internal/naming"
	"showaudit/internal/services"
)

const component = "matching"

// DefaultThreshold is the minimum score accepted without confirmation.
const DefaultThreshold = 90

// Provenance records how a Decision was reached.
type Provenance string

const (
	ProvenanceAuto      Provenance = "auto"
	ProvenanceConfirmed Provenance = "confirmed"
	ProvenanceOverride  Provenance = "override"
)

// Decision is the resolved catalog identity for a show. Candidate.ID is never
// empty on a Decision returned by Resolve.
type Decision struct {
	Candidate  catalog.Candidate
	Score      int
	Provenance Provenance
}

// Resolver ranks candidates and applies the confidence policy.
type Resolver struct {
	threshold     int
	disambiguator Disambiguator
	logger        *slog.Logger
}

// NewResolver builds a resolver. A nil disambiguator behaves like AutoReject.
func NewResolver(threshold int, disambiguator Disambiguator, logger *slog.Logger) *Resolver {
	if disambiguator == nil {
		disambiguator = AutoReject
	}
	return &Resolver{
		threshold:     threshold,
		disambiguator: disambiguator,
		logger:        logging.NewComponentLogger(logger, component),
	}
}

// Threshold returns the configured confidence threshold.
func (r *Resolver) Threshold() int {
	return r.threshold
}

// Resolve picks the catalog identity for folder from candidates.
func (r *Resolver) Resolve(ctx context.Context, folder string, query naming.Result, candidates []catalog.Candidate) (Decision, error) {
	logger := logging.WithContext(ctx, r.logger)
	if len(candidates) == 0 {
		return Decision{}, services.Wrap(services.ErrNoMatch, component, "resolve", fmt.Sprintf("no candidates for %q", query.Name), nil)
	}

	ranked := Rank(query, candidates)
	for idx, scored := range ranked {
		logger.Debug("candidate scored",
			logging.Int("rank", idx),
			logging.CatalogID(scored.Candidate.ID),
			logging.String("name", scored.Candidate.Name),
			logging.String("year", scored.Candidate.Year),
			logging.Int("base_score", scored.Base),
			logging.Int("score", scored.Score),
		)
	}

	top := ranked[0]
	if top.Candidate.ID == "" {
		return Decision{}, services.Wrap(services.ErrNoMatch, component, "resolve", "top candidate has no catalog id", nil)
	}
	if top.Score >= r.threshold {
		r.logDecision(logger, top, string(ProvenanceAuto), "score at or above threshold")
		return Decision{Candidate: top.Candidate, Score: top.Score, Provenance: ProvenanceAuto}, nil
	}

	answer, err := r.disambiguator.Disambiguate(ctx, Prompt{
		Folder:    folder,
		Query:     query.Name,
		Top:       top,
		Threshold: r.threshold,
		Ranked:    ranked,
	})
	if err != nil {
		return Decision{}, err
	}

	switch answer.Verdict {
	case Accept:
		r.logDecision(logger, top, string(ProvenanceConfirmed), "low confidence match confirmed")
		return Decision{Candidate: top.Candidate, Score: top.Score, Provenance: ProvenanceConfirmed}, nil
	case Substitute:
		if id := answer.SubstituteID; id != "" {
			substitute := catalog.Candidate{ID: id, Name: top.Candidate.Name}
			for _, scored := range ranked {
				if scored.Candidate.ID == id {
					substitute = scored.Candidate
					break
				}
			}
			r.logDecision(logger, Scored{Candidate: substitute, Score: top.Score}, string(ProvenanceOverride), "catalog id supplied manually")
			return Decision{Candidate: substitute, Score: top.Score, Provenance: ProvenanceOverride}, nil
		}
	}

	r.logDecision(logger, top, "rejected", "low confidence match not confirmed")
	return Decision{}, services.Wrap(services.ErrLowConfidence, component, "resolve",
		fmt.Sprintf("top candidate %q (%s) scored %d below threshold %d", top.Candidate.Name, top.Candidate.ID, top.Score, r.threshold), nil)
}

func (r *Resolver) logDecision(logger *slog.Logger, scored Scored, result, reason string) {
	attrs := logging.MatchDecision(result, reason, scored.Score, r.threshold)
	attrs = append(attrs,
		logging.CatalogID(scored.Candidate.ID),
		logging.String("name", scored.Candidate.Name),
	)
	logger.Info("match decision", logging.Args(attrs...)...)
}
