package judging

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/maaaruch/hackjudge/internal/apperr"
	"github.com/maaaruch/hackjudge/internal/domain"
	"github.com/maaaruch/hackjudge/internal/notify"
	"github.com/maaaruch/hackjudge/internal/storage"
)

type NewPanelist struct {
	FirstName   string
	LastName    string
	Email       string
	Speciality  []string
	HackathonID string
}

type PanelistPatch struct {
	FirstName  *string
	LastName   *string
	Email      *string
	Speciality *[]string
}

func cleanEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", apperr.New(apperr.KindValidation, "email should be provided, it is used by the panelist to login")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.New(apperr.KindValidation, "email %q is not a valid address", email)
	}
	return email, nil
}

func cleanSpeciality(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// CreatePanelist registers a panelist on a hackathon and mails them the
// hackathon id they log in with. A failed mail does not undo the creation.
func (s *Service) CreatePanelist(ctx context.Context, in NewPanelist) (*domain.Panelist, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	p := domain.Panelist{
		ID:          s.newID(),
		HackathonID: in.HackathonID,
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		Speciality:  cleanSpeciality(in.Speciality),
		Teams:       []string{},
	}
	if p.FirstName == "" || p.LastName == "" {
		return nil, apperr.New(apperr.KindValidation, "full name required")
	}
	email, err := cleanEmail(in.Email)
	if err != nil {
		return nil, err
	}
	p.Email = email

	if _, err := s.store.GetHackathon(ctx, in.HackathonID); err != nil {
		return nil, fail(err, "hackathon %s not found", in.HackathonID)
	}
	if err := s.store.CreatePanelist(ctx, p); err != nil {
		return nil, panelistSaveErr(err, p.Email)
	}
	s.log.Info("panelist created", "panelist", p.ID, "hackathon", p.HackathonID)

	if s.notifier != nil {
		s.notifier.Notify(p.Email, notify.PanelistRegistrationSubject, notify.PanelistRegistrationBody(p.FirstName, p.HackathonID))
	}
	return &p, nil
}

func panelistSaveErr(err error, email string) error {
	if errors.Is(err, storage.ErrConflict) {
		return apperr.New(apperr.KindConflict, "panelist %s is already registered for this hackathon", email)
	}
	return fail(err, "save panelist")
}

func (s *Service) EditPanelist(ctx context.Context, panelistID string, patch PanelistPatch) (*domain.Panelist, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var out *domain.Panelist
	err := s.store.InTx(ctx, func(tx *storage.Store) error {
		p, err := tx.GetPanelist(ctx, panelistID)
		if err != nil {
			return fail(err, "panelist %s not found", panelistID)
		}
		if patch.FirstName != nil {
			if p.FirstName = strings.TrimSpace(*patch.FirstName); p.FirstName == "" {
				return apperr.New(apperr.KindValidation, "first name cannot be empty")
			}
		}
		if patch.LastName != nil {
			if p.LastName = strings.TrimSpace(*patch.LastName); p.LastName == "" {
				return apperr.New(apperr.KindValidation, "last name cannot be empty")
			}
		}
		if patch.Email != nil {
			email, err := cleanEmail(*patch.Email)
			if err != nil {
				return err
			}
			p.Email = email
		}
		if patch.Speciality != nil {
			p.Speciality = cleanSpeciality(*patch.Speciality)
		}
		if err := tx.UpdatePanelist(ctx, *p); err != nil {
			return panelistSaveErr(err, p.Email)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, fail(err, "edit panelist")
	}
	return out, nil
}

func (s *Service) GetPanelist(ctx context.Context, panelistID string) (*domain.Panelist, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	p, err := s.store.GetPanelist(ctx, panelistID)
	if err != nil {
		return nil, fail(err, "panelist %s not found", panelistID)
	}
	return p, nil
}

func (s *Service) ListPanelists(ctx context.Context, hackathonID string) ([]domain.Panelist, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if _, err := s.store.GetHackathon(ctx, hackathonID); err != nil {
		return nil, fail(err, "hackathon %s not found", hackathonID)
	}
	panelists, err := s.store.ListPanelists(ctx, hackathonID)
	if err != nil {
		return nil, fail(err, "list panelists")
	}
	return panelists, nil
}

// Authenticate resolves a panelist by email within a hackathon. The hackathon
// id is the only shared secret here; callers must not treat a successful
// result as proof of identity beyond "knows the invitation mail".
func (s *Service) Authenticate(ctx context.Context, email, hackathonID string) (*domain.Panelist, *domain.Hackathon, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	email = strings.TrimSpace(email)
	hackathonID = strings.TrimSpace(hackathonID)
	if email == "" || hackathonID == "" {
		return nil, nil, apperr.New(apperr.KindValidation, "all fields must be filled")
	}

	candidates, err := s.store.FindPanelistsByEmail(ctx, email)
	if err != nil {
		return nil, nil, fail(err, "find panelist")
	}
	if len(candidates) == 0 {
		return nil, nil, apperr.New(apperr.KindNotFound, "panelist not found")
	}
	h, err := s.store.GetHackathon(ctx, hackathonID)
	if err != nil {
		return nil, nil, fail(err, "hackathon not found")
	}
	for i := range candidates {
		if candidates[i].HackathonID == h.ID {
			return &candidates[i], h, nil
		}
	}
	return nil, nil, apperr.New(apperr.KindForbidden, "panelist not part of this hackathon")
}
