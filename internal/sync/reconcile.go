package sync

import (
	"log/slog"
	"sort"

	"github.com/lisashushakova/PresentationConfigurator/internal/domain"
)

// Comparator decides whether two thumbnails show the same slide.
type Comparator interface {
	Similar(a, b []byte) (bool, error)
}

// AmbiguityPolicy selects how the reconciler handles a stored slide whose
// thumbnail matches more than one position in the new deck.
type AmbiguityPolicy int

const (
	// AmbiguitySkip leaves an ambiguous stored slide untouched: no delete
	// and no reindex are emitted for it. Duplicate slides within a deck
	// therefore survive sync with their old index.
	AmbiguitySkip AmbiguityPolicy = iota
)

// Reindex moves a surviving slide to its position in the new deck. The
// slide keeps its identity, so links keyed on it carry over.
type Reindex struct {
	SlideID  int64
	NewIndex int
}

// Plan is the set of storage operations that brings a deck's stored slides
// in line with a freshly rendered version.
type Plan struct {
	Deletes   []int64
	Reindexes []Reindex
	Creates   []int
}

// Empty reports whether the plan changes nothing.
func (p *Plan) Empty() bool {
	return len(p.Deletes) == 0 && len(p.Reindexes) == 0 && len(p.Creates) == 0
}

// Reconciler matches stored slides against the rendered thumbnails of a new
// deck version by visual similarity.
type Reconciler struct {
	cmp    Comparator
	policy AmbiguityPolicy
	logger *slog.Logger
}

func NewReconciler(cmp Comparator, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		cmp:    cmp,
		policy: AmbiguitySkip,
		logger: logger,
	}
}

// Reconcile computes the plan for one deck. For each stored slide, taken in
// ascending index order, it collects the new positions with a similar
// thumbnail. No match means the slide was removed from the deck; exactly one
// match means it survives, reindexed if it moved; multiple matches are
// ambiguous and handled per the policy. Every new position left unclaimed by
// a surviving slide becomes a create.
//
// The reconciler performs no I/O; the only error source is malformed image
// bytes surfacing from the comparator.
func (r *Reconciler) Reconcile(stored []domain.Slide, newThumbnails [][]byte) (*Plan, error) {
	old := make([]domain.Slide, len(stored))
	copy(old, stored)
	sort.Slice(old, func(i, j int) bool { return old[i].Index < old[j].Index })

	plan := &Plan{
		Deletes:   make([]int64, 0),
		Reindexes: make([]Reindex, 0),
		Creates:   make([]int, 0),
	}

	claims := make([]int, len(newThumbnails))
	for _, slide := range old {
		matches := make([]int, 0, 1)
		for j, thumb := range newThumbnails {
			ok, err := r.cmp.Similar(slide.Thumbnail, thumb)
			if err != nil {
				return nil, err
			}
			if ok {
				matches = append(matches, j)
			}
		}

		switch len(matches) {
		case 0:
			plan.Deletes = append(plan.Deletes, slide.ID)

		case 1:
			j := matches[0]
			claims[j]++
			if j != slide.Index {
				plan.Reindexes = append(plan.Reindexes, Reindex{SlideID: slide.ID, NewIndex: j})
			}

		default:
			r.logger.Debug("ambiguous slide match, skipping",
				"slide_id", slide.ID,
				"index", slide.Index,
				"matches", len(matches),
			)
		}
	}

	for j, n := range claims {
		if n == 0 {
			plan.Creates = append(plan.Creates, j)
		}
	}

	return plan, nil
}
