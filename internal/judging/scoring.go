package judging

import (
	"context"
	"math"

	"github.com/maaaruch/hackjudge/internal/apperr"
	"github.com/maaaruch/hackjudge/internal/domain"
	"github.com/maaaruch/hackjudge/internal/storage"
)

// RecordScores sets the received points of each of the team's criteria, in
// order. Every score is checked before the first write.
func (s *Service) RecordScores(ctx context.Context, teamID string, scores []float64) (*domain.Team, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var out *domain.Team
	err := s.store.InTx(ctx, func(tx *storage.Store) error {
		team, err := tx.GetTeam(ctx, teamID)
		if err != nil {
			return fail(err, "team %s not found", teamID)
		}
		if err := validateScores(team.ScoringCriteria, scores); err != nil {
			return err
		}
		for i, c := range team.ScoringCriteria {
			if err := tx.SetReceivedPoints(ctx, c.ID, scores[i]); err != nil {
				return fail(err, "save score for criteria %q", c.Name)
			}
		}
		if out, err = tx.GetTeam(ctx, teamID); err != nil {
			return fail(err, "reload team %s", teamID)
		}
		return nil
	})
	if err != nil {
		return nil, fail(err, "record scores")
	}
	s.log.Info("scores recorded", "team", teamID, "criteria", len(scores))
	return out, nil
}

func validateScores(criteria []domain.TeamCriterion, scores []float64) error {
	if len(scores) != len(criteria) {
		return apperr.New(apperr.KindValidation,
			"scores array length (%d) doesn't match criteria count (%d)", len(scores), len(criteria))
	}
	for i, c := range criteria {
		v := scores[i]
		if math.IsNaN(v) || v < 0 || v > c.MaxPoints {
			return apperr.New(apperr.KindValidation,
				"invalid score %v for criteria %q, must be between 0 and %v", v, c.Name, c.MaxPoints)
		}
	}
	return nil
}

func (s *Service) GetScores(ctx context.Context, teamID string) ([]domain.TeamCriterion, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	team, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return nil, fail(err, "team %s not found", teamID)
	}
	return team.ScoringCriteria, nil
}

// TeamTotals is the hackathon leaderboard: received and maximum points per
// team, best first.
func (s *Service) TeamTotals(ctx context.Context, hackathonID string) ([]domain.TeamTotal, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if _, err := s.store.GetHackathon(ctx, hackathonID); err != nil {
		return nil, fail(err, "hackathon %s not found", hackathonID)
	}
	totals, err := s.store.TeamTotals(ctx, hackathonID)
	if err != nil {
		return nil, fail(err, "team totals")
	}
	return totals, nil
}
