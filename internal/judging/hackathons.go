package judging

import (
	"context"
	"strings"

	"github.com/maaaruch/hackjudge/internal/apperr"
	"github.com/maaaruch/hackjudge/internal/domain"
	"github.com/maaaruch/hackjudge/internal/storage"
)

type HackathonPatch struct {
	Name        *string
	TeamMinSize *int
	TeamMaxSize *int
}

func validateTeamSize(lo, hi int) error {
	if lo < 1 || hi < 1 {
		return apperr.New(apperr.KindValidation, "team size bounds must be positive")
	}
	if lo > hi {
		return apperr.New(apperr.KindValidation, "minimum team size cannot be greater than maximum team size")
	}
	return nil
}

// CreateHackathon registers a hackathon for ownerID. Nil sizes take the
// defaults of 1 and 4.
func (s *Service) CreateHackathon(ctx context.Context, ownerID, name string, minSize, maxSize *int) (*domain.Hackathon, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.KindValidation, "hackathon name is required")
	}
	h := domain.Hackathon{
		ID:              s.newID(),
		OwnerUserID:     ownerID,
		Name:            name,
		TeamMinSize:     domain.DefaultTeamMinSize,
		TeamMaxSize:     domain.DefaultTeamMaxSize,
		Panelists:       []string{},
		ScoringCriteria: []string{},
		Teams:           []string{},
		CreatedAt:       s.now(),
	}
	if minSize != nil {
		h.TeamMinSize = *minSize
	}
	if maxSize != nil {
		h.TeamMaxSize = *maxSize
	}
	if err := validateTeamSize(h.TeamMinSize, h.TeamMaxSize); err != nil {
		return nil, err
	}

	if _, err := s.store.GetUser(ctx, ownerID); err != nil {
		return nil, fail(err, "user %s not found", ownerID)
	}
	if err := s.store.CreateHackathon(ctx, h); err != nil {
		return nil, fail(err, "create hackathon")
	}
	s.log.Info("hackathon created", "hackathon", h.ID, "owner", ownerID)
	return &h, nil
}

func (s *Service) EditHackathon(ctx context.Context, hackathonID string, patch HackathonPatch) (*domain.Hackathon, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var out *domain.Hackathon
	err := s.store.InTx(ctx, func(tx *storage.Store) error {
		h, err := tx.GetHackathon(ctx, hackathonID)
		if err != nil {
			return fail(err, "hackathon %s not found", hackathonID)
		}
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return apperr.New(apperr.KindValidation, "hackathon name is required")
			}
			h.Name = name
		}
		if patch.TeamMinSize != nil {
			h.TeamMinSize = *patch.TeamMinSize
		}
		if patch.TeamMaxSize != nil {
			h.TeamMaxSize = *patch.TeamMaxSize
		}
		if err := validateTeamSize(h.TeamMinSize, h.TeamMaxSize); err != nil {
			return err
		}
		if err := tx.UpdateHackathon(ctx, *h); err != nil {
			return fail(err, "update hackathon %s", hackathonID)
		}
		out = h
		return nil
	})
	if err != nil {
		return nil, fail(err, "edit hackathon")
	}
	return out, nil
}

func (s *Service) GetHackathon(ctx context.Context, hackathonID string) (*domain.Hackathon, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	h, err := s.store.GetHackathon(ctx, hackathonID)
	if err != nil {
		return nil, fail(err, "hackathon %s not found", hackathonID)
	}
	return h, nil
}

func (s *Service) ListHackathons(ctx context.Context, ownerID string) ([]domain.Hackathon, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if _, err := s.store.GetUser(ctx, ownerID); err != nil {
		return nil, fail(err, "user %s not found", ownerID)
	}
	hackathons, err := s.store.ListHackathonsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fail(err, "list hackathons")
	}
	return hackathons, nil
}

// DeleteHackathon deletes a hackathon owned by ownerID along with everything
// scoped to it.
func (s *Service) DeleteHackathon(ctx context.Context, ownerID, hackathonID string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	deleted, err := s.store.DeleteHackathon(ctx, hackathonID, ownerID)
	if err != nil {
		return fail(err, "delete hackathon %s", hackathonID)
	}
	if !deleted {
		return apperr.New(apperr.KindNotFound, "hackathon %s not found", hackathonID)
	}
	s.log.Info("hackathon deleted", "hackathon", hackathonID, "owner", ownerID)
	return nil
}

func (s *Service) IsHackathonOwner(ctx context.Context, hackathonID, userID string) (bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	ok, err := s.store.IsHackathonOwner(ctx, hackathonID, userID)
	if err != nil {
		return false, fail(err, "check hackathon owner")
	}
	return ok, nil
}
