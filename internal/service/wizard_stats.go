package service

import (
	"context"

	"github.com/google/uuid"

	"vot-service/internal/model"
	"vot-service/internal/repository"
)

type StatusTotals struct {
	Total    int64                        `json:"total"`
	ByStatus map[model.WizardStatus]int64 `json:"por_estado"`
}

type WizardStats struct {
	Total    int64                        `json:"total_reportes"`
	ByStatus map[model.WizardStatus]int64 `json:"por_estado"`
	Mine     StatusTotals                 `json:"mis_reportes"`
}

// Stats counts wizards of kind by status across every owner and for the
// actor alone.
func (s *WizardService) Stats(ctx context.Context, actor model.Principal, kind model.WizardKind) (*WizardStats, error) {
	if _, err := s.machine(kind); err != nil {
		return nil, err
	}

	count := func(owner *uuid.UUID) ([]repository.StatusCount, error) {
		if kind == model.WizardPredio {
			return repository.NewPredioWizardRepository(s.db).CountByStatus(ctx, owner)
		}
		return repository.NewPoleWizardRepository(s.db).CountByStatus(ctx, kind, owner)
	}

	all, err := count(nil)
	if err != nil {
		return nil, err
	}
	owner := actor.UserID
	mine, err := count(&owner)
	if err != nil {
		return nil, err
	}

	overall := totals(all)
	return &WizardStats{
		Total:    overall.Total,
		ByStatus: overall.ByStatus,
		Mine:     totals(mine),
	}, nil
}

func totals(counts []repository.StatusCount) StatusTotals {
	t := StatusTotals{ByStatus: make(map[model.WizardStatus]int64, len(counts))}
	for _, c := range counts {
		t.ByStatus[c.Status] = c.Total
		t.Total += c.Total
	}
	return t
}
