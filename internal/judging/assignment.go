package judging

import (
	"context"

	"github.com/maaaruch/hackjudge/internal/apperr"
	"github.com/maaaruch/hackjudge/internal/domain"
	"github.com/maaaruch/hackjudge/internal/storage"
)

// Assign links the panelist to every team in teamIDs not already linked.
// It fails with a conflict when all of them already are. Ids that do not
// name a team of the panelist's hackathon are skipped. Both sides of the
// relation are read from one table, so a single transaction keeps them equal.
func (s *Service) Assign(ctx context.Context, panelistID string, teamIDs []string) (*domain.Panelist, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	ids := idSet(teamIDs)
	if len(ids) == 0 {
		return nil, apperr.New(apperr.KindValidation, "team id not provided")
	}

	var out *domain.Panelist
	err := s.store.InTx(ctx, func(tx *storage.Store) error {
		p, err := tx.GetPanelist(ctx, panelistID)
		if err != nil {
			return fail(err, "panelist %s not found", panelistID)
		}

		linked := make(map[string]bool, len(p.Teams))
		for _, id := range p.Teams {
			linked[id] = true
		}
		var newTeams []string
		for _, id := range ids {
			if !linked[id] {
				newTeams = append(newTeams, id)
			}
		}
		if len(newTeams) == 0 {
			return apperr.New(apperr.KindConflict, "all provided teams are already assigned to this panelist")
		}

		for _, id := range newTeams {
			ok, err := tx.CheckTeamInHackathon(ctx, id, p.HackathonID)
			if err != nil {
				return fail(err, "check team %s", id)
			}
			if !ok {
				s.log.Debug("assign: skipping unknown team", "panelist", panelistID, "team", id)
				continue
			}
			if _, err := tx.Link(ctx, panelistID, id); err != nil {
				return fail(err, "assign team %s", id)
			}
		}

		if out, err = tx.GetPanelist(ctx, panelistID); err != nil {
			return fail(err, "reload panelist %s", panelistID)
		}
		return nil
	})
	if err != nil {
		return nil, fail(err, "assign teams")
	}
	s.log.Info("teams assigned", "panelist", panelistID, "teams", len(out.Teams))
	return out, nil
}

// Unassign removes the links between the panelist and teamIDs. Ids that are
// not linked are ignored, so repeating a call is a no-op.
func (s *Service) Unassign(ctx context.Context, panelistID string, teamIDs []string) (*domain.Panelist, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	ids := idSet(teamIDs)
	if len(ids) == 0 {
		return nil, apperr.New(apperr.KindValidation, "team id not provided")
	}

	var out *domain.Panelist
	err := s.store.InTx(ctx, func(tx *storage.Store) error {
		if _, err := tx.GetPanelist(ctx, panelistID); err != nil {
			return fail(err, "panelist %s not found", panelistID)
		}
		for _, id := range ids {
			if _, err := tx.Unlink(ctx, panelistID, id); err != nil {
				return fail(err, "unassign team %s", id)
			}
		}
		var err error
		if out, err = tx.GetPanelist(ctx, panelistID); err != nil {
			return fail(err, "reload panelist %s", panelistID)
		}
		return nil
	})
	if err != nil {
		return nil, fail(err, "unassign teams")
	}
	s.log.Info("teams unassigned", "panelist", panelistID, "teams", len(out.Teams))
	return out, nil
}

// GetAssignedTeams lists the teams that have the panelist among their
// assigned panelists.
func (s *Service) GetAssignedTeams(ctx context.Context, panelistID string) ([]domain.Team, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if _, err := s.store.GetPanelist(ctx, panelistID); err != nil {
		return nil, fail(err, "panelist %s not found", panelistID)
	}
	teams, err := s.store.ListTeamsAssignedTo(ctx, panelistID)
	if err != nil {
		return nil, fail(err, "list assigned teams")
	}
	return teams, nil
}

func (s *Service) IsAssigned(ctx context.Context, panelistID, teamID string) (bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	ok, err := s.store.IsAssigned(ctx, panelistID, teamID)
	if err != nil {
		return false, fail(err, "check assignment")
	}
	return ok, nil
}
