// Package judging implements hackathon setup, team import, panelist
// assignment and scoring on top of the sqlite store.
//
// Every operation runs under the configured timeout. Operations that touch
// more than one row commit in a single transaction, so the panelist↔team
// relation and recorded scores are never left half written.
package judging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maaaruch/hackjudge/internal/apperr"
	"github.com/maaaruch/hackjudge/internal/storage"
)

type Notifier interface {
	Notify(to, subject, body string)
}

type Options struct {
	Timeout time.Duration
	Log     *slog.Logger
	Now     func() time.Time
	NewID   func() string
}

type Service struct {
	store    *storage.Store
	notifier Notifier
	timeout  time.Duration
	log      *slog.Logger
	now      func() time.Time
	newID    func() string
}

func New(store *storage.Store, notifier Notifier, opts Options) *Service {
	s := &Service{
		store:    store,
		notifier: notifier,
		timeout:  opts.Timeout,
		log:      opts.Log,
		now:      opts.Now,
		newID:    opts.NewID,
	}
	if s.timeout <= 0 {
		s.timeout = 5 * time.Second
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// fail turns a storage or context error into an apperr. Errors that already
// carry a kind pass through untouched.
func fail(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	msg := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperr.New(apperr.KindNotFound, "%s", msg)
	case errors.Is(err, storage.ErrConflict):
		return apperr.New(apperr.KindConflict, "%s", msg)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperr.Wrap(apperr.KindDependency, err, "%s: storage timed out", msg)
	default:
		return apperr.Wrap(apperr.KindDependency, err, "%s", msg)
	}
}

// idSet trims, drops blanks and dedupes ids while keeping their order.
func idSet(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
