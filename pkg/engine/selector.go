package engine

import (
	"sort"

	"github.com/cypherlabdev/arb-detection-service/internal/models"
)

// Selector picks at most one record per outcome label such that no source
// funds more than one leg of the same selection. Implementations return nil
// when fewer than two labels receive a pick.
//
// The greedy default is intentionally not globally optimal: with three or
// more outcomes, a source consumed early for a mediocre price might have
// offered the best price for a later outcome. Outcome counts per market are
// tiny, so an exact weighted-assignment implementation can be substituted
// here without touching callers.
type Selector interface {
	Select(groups map[string][]models.OutcomeRecord, allowed map[string]struct{}) map[string]models.OutcomeRecord
}

// GreedySelector processes outcome labels in deterministic (sorted) order
// and takes the best remaining price for each
type GreedySelector struct{}

// Select implements Selector
func (GreedySelector) Select(groups map[string][]models.OutcomeRecord, allowed map[string]struct{}) map[string]models.OutcomeRecord {
	labels := make([]string, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	selection := make(map[string]models.OutcomeRecord, len(labels))
	usedSources := make(map[string]struct{}, len(labels))

	for _, label := range labels {
		var best *models.OutcomeRecord
		for i := range groups[label] {
			rec := &groups[label][i]
			if allowed != nil {
				if _, ok := allowed[rec.SourceID]; !ok {
					continue
				}
			}
			if _, used := usedSources[rec.SourceID]; used {
				continue
			}
			if best == nil || rec.Price.GreaterThan(best.Price) ||
				(rec.Price.Equal(best.Price) && rec.SourceID < best.SourceID) {
				best = rec
			}
		}
		if best != nil {
			selection[label] = *best
			usedSources[best.SourceID] = struct{}{}
		}
	}

	if len(selection) < 2 {
		return nil
	}
	return selection
}
