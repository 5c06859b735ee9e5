package judging

import (
	"context"
	"math"
	"strings"

	"github.com/maaaruch/hackjudge/internal/apperr"
	"github.com/maaaruch/hackjudge/internal/domain"
	"github.com/maaaruch/hackjudge/internal/storage"
)

type CriterionPatch struct {
	Name      *string
	MaxPoints *float64
}

func validMaxPoints(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// CreateCriterion appends a scoring template to the hackathon. Teams created
// afterwards get their own copy of it.
func (s *Service) CreateCriterion(ctx context.Context, hackathonID, name string, maxPoints float64) (*domain.Criterion, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.KindValidation, "criteria should have some name")
	}
	if !validMaxPoints(maxPoints) {
		return nil, apperr.New(apperr.KindValidation, "criteria should have a positive maximum point value")
	}

	if _, err := s.store.GetHackathon(ctx, hackathonID); err != nil {
		return nil, fail(err, "hackathon %s not found", hackathonID)
	}
	c := domain.Criterion{ID: s.newID(), HackathonID: hackathonID, Name: name, MaxPoints: maxPoints}
	if err := s.store.CreateCriterion(ctx, c); err != nil {
		return nil, fail(err, "create criterion")
	}
	return &c, nil
}

// EditCriterion applies patch to the template and to every team instance
// copied from it. Lowering MaxPoints below an already recorded score is
// rejected.
func (s *Service) EditCriterion(ctx context.Context, criterionID string, patch CriterionPatch) (*domain.Criterion, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var out *domain.Criterion
	err := s.store.InTx(ctx, func(tx *storage.Store) error {
		c, err := tx.GetCriterion(ctx, criterionID)
		if err != nil {
			return fail(err, "criteria %s not found", criterionID)
		}
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return apperr.New(apperr.KindValidation, "criteria should have some name")
			}
			c.Name = name
		}
		if patch.MaxPoints != nil {
			if !validMaxPoints(*patch.MaxPoints) {
				return apperr.New(apperr.KindValidation, "criteria should have a positive maximum point value")
			}
			top, scored, err := tx.MaxReceivedForTemplate(ctx, c.ID)
			if err != nil {
				return fail(err, "check recorded scores")
			}
			if scored && top > *patch.MaxPoints {
				return apperr.New(apperr.KindValidation,
					"criteria %q already has a recorded score of %v, above the new maximum %v", c.Name, top, *patch.MaxPoints)
			}
			c.MaxPoints = *patch.MaxPoints
		}
		if err := tx.UpdateCriterion(ctx, *c); err != nil {
			return fail(err, "update criterion %s", criterionID)
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, fail(err, "edit criterion")
	}
	return out, nil
}

func (s *Service) GetCriterion(ctx context.Context, criterionID string) (*domain.Criterion, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	c, err := s.store.GetCriterion(ctx, criterionID)
	if err != nil {
		return nil, fail(err, "criteria %s not found", criterionID)
	}
	return c, nil
}

func (s *Service) ListCriteria(ctx context.Context, hackathonID string) ([]domain.Criterion, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if _, err := s.store.GetHackathon(ctx, hackathonID); err != nil {
		return nil, fail(err, "hackathon %s not found", hackathonID)
	}
	criteria, err := s.store.ListCriteria(ctx, hackathonID)
	if err != nil {
		return nil, fail(err, "list criteria")
	}
	return criteria, nil
}

// copyCriteria builds team-owned instances of the templates with no score.
func (s *Service) copyCriteria(teamID string, templates []domain.Criterion) []domain.TeamCriterion {
	out := make([]domain.TeamCriterion, len(templates))
	for i, t := range templates {
		out[i] = domain.TeamCriterion{
			ID:         s.newID(),
			TeamID:     teamID,
			TemplateID: t.ID,
			Name:       t.Name,
			MaxPoints:  t.MaxPoints,
			Position:   i,
		}
	}
	return out
}
