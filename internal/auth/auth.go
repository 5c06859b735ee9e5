// Package auth registers organizers, checks their passwords and issues the
// bearer tokens both organizers and panelists use.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/maaaruch/hackjudge/internal/apperr"
	"github.com/maaaruch/hackjudge/internal/domain"
	"github.com/maaaruch/hackjudge/internal/storage"
)

type SignupInput struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type Service struct {
	store   *storage.Store
	tokens  *Tokens
	log     *slog.Logger
	timeout time.Duration
	cost    int
}

func NewService(store *storage.Store, tokens *Tokens, timeout time.Duration, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{store: store, tokens: tokens, log: log, timeout: timeout, cost: bcrypt.DefaultCost}
}

func (s *Service) Tokens() *Tokens {
	return s.tokens
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Password == "" || in.ConfirmPassword == "" {
		return nil, apperr.New(apperr.KindValidation, "all fields must be filled")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, apperr.New(apperr.KindValidation, "email %q is not a valid address", in.Email)
	}
	if in.Password != in.ConfirmPassword {
		return nil, apperr.New(apperr.KindValidation, "passwords don't match, try again")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		// bcrypt refuses passwords over 72 bytes
		return nil, apperr.Wrap(apperr.KindValidation, err, "password cannot be used")
	}

	u := domain.User{
		ID:           uuid.NewString(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: string(hash),
		Hackathons:   []string{},
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, apperr.New(apperr.KindConflict, "user already exists, sign in to continue")
		}
		return nil, apperr.Wrap(apperr.KindDependency, err, "user cannot be registered")
	}
	s.log.Info("user registered", "user", u.ID)
	return &u, nil
}

// Login checks the organizer's password and returns the user with a creator
// token.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, "", apperr.New(apperr.KindValidation, "all fields required")
	}

	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", apperr.New(apperr.KindNotFound, "user not registered, sign up to continue")
		}
		return nil, "", apperr.Wrap(apperr.KindDependency, err, "load user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", apperr.New(apperr.KindUnauthorized, "password is incorrect")
	}

	token, err := s.tokens.Issue(u.ID, u.Email, RoleCreator, "")
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindDependency, err, "issue token")
	}
	return u, token, nil
}

// PanelistToken issues a token scoped to one panelist of one hackathon.
func (s *Service) PanelistToken(p *domain.Panelist) (string, error) {
	token, err := s.tokens.Issue(p.ID, p.Email, RolePanelist, p.HackathonID)
	if err != nil {
		return "", apperr.Wrap(apperr.KindDependency, err, "issue token")
	}
	return token, nil
}
