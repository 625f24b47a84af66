package protocol

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// Tally counts records by lifecycle state.
type Tally struct {
	Created            int64 `json:"gerados"`
	Completed          int64 `json:"finalizados"`
	Open               int64 `json:"abertos"`
	Overdue            int64 `json:"atrasados"`
	Requirements       int64 `json:"exigencias"`
	Pending            int64 `json:"pendentes"`
	InProgress         int64 `json:"em_andamento"`
	RequirementPending int64 `json:"exigencias_pendentes"`
}

// Stats holds the overall tally and one tally per category.
type Stats struct {
	Total      Tally            `json:"total"`
	ByCategory map[string]Tally `json:"por_categoria"`
}

// Stats counts records overall and per category. A record is open unless
// it is completed or deleted, and overdue when it is in progress and was
// created on or before overdueBefore.
func (s *Service) Stats(ctx context.Context, overdueBefore time.Time) (Stats, error) {
	total, err := s.tally(ctx, nil, overdueBefore)
	if err != nil {
		return Stats{}, err
	}
	names := s.AllowedCategories(ctx)
	used, err := s.records.Distinct(ctx, types.FieldCategory)
	if err != nil {
		return Stats{}, fmt.Errorf("listing record categories: %w", err)
	}
	for _, u := range used {
		if name, ok := u.(string); ok && !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	out := Stats{Total: total, ByCategory: make(map[string]Tally, len(names))}
	for _, name := range names {
		t, err := s.tally(ctx, types.Where(types.Eq(types.FieldCategory, name)), overdueBefore)
		if err != nil {
			return Stats{}, err
		}
		out.ByCategory[name] = t
	}
	return out, nil
}

func (s *Service) tally(ctx context.Context, scope types.Filter, overdueBefore time.Time) (Tally, error) {
	var (
		t     Tally
		err   error
		count = func(ps ...types.Predicate) int64 {
			if err != nil {
				return 0
			}
			var n int64
			n, err = s.records.CountDocuments(ctx, scope.And(ps...))
			return n
		}
	)
	t.Created = count()
	t.Completed = count(types.Eq(types.FieldStatus, types.StatusCompleted))
	closed := count(types.In(types.FieldStatus, types.StatusCompleted, types.StatusDeleted))
	t.Open = t.Created - closed
	t.Requirements = count(types.Eq(types.FieldStatus, types.StatusRequirement))
	t.Pending = count(types.Eq(types.FieldStatus, types.StatusPending))
	t.InProgress = count(types.Eq(types.FieldStatus, types.StatusInProgress))
	t.RequirementPending = count(types.In(types.FieldStatus, types.StatusRequirement, types.StatusPending))
	t.Overdue = count(
		types.Eq(types.FieldStatus, types.StatusInProgress),
		types.Lte(types.FieldCreatedAtTime, overdueBefore.UTC()),
	)
	if err != nil {
		return Tally{}, fmt.Errorf("counting records: %w", err)
	}
	return t, nil
}
