package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/maaaruch/hackjudge/internal/domain"
)

func newTestStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	s := New(db)
	if err := s.InitSchema(context.Background()); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return s, db
}

func mustCount(t *testing.T, db *sql.DB, q string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := db.QueryRow(q, args...).Scan(&n); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	return n
}

// seed creates a user, a hackathon with one criterion and one team with a
// copied criterion instance.
func seed(t *testing.T, s *Store) (hackathonID, criterionID, teamID string) {
	t.Helper()
	ctx := context.Background()

	if err := s.CreateUser(ctx, domain.User{ID: "u1", FirstName: "Org", LastName: "One", Email: "org@x.com", PasswordHash: "h", CreatedAt: time.Unix(1, 0)}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := s.CreateHackathon(ctx, domain.Hackathon{ID: "h1", OwnerUserID: "u1", Name: "Hack", TeamMinSize: 1, TeamMaxSize: 4, CreatedAt: time.Unix(2, 0)}); err != nil {
		t.Fatalf("CreateHackathon: %v", err)
	}
	if err := s.CreateCriterion(ctx, domain.Criterion{ID: "c1", HackathonID: "h1", Name: "Innovation", MaxPoints: 10}); err != nil {
		t.Fatalf("CreateCriterion: %v", err)
	}
	team := domain.Team{
		ID:          "t1",
		HackathonID: "h1",
		Name:        "Team Alpha",
		Participants: []domain.Participant{
			{ID: "p1", FirstName: "John", LastName: "Doe", Email: "john@x.com"},
		},
		ScoringCriteria: []domain.TeamCriterion{
			{ID: "tc1", TemplateID: "c1", Name: "Innovation", MaxPoints: 10},
		},
	}
	if err := s.CreateTeam(ctx, team); err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	return "h1", "c1", "t1"
}

func TestStore_CreateTeam_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	_, _, teamID := seed(t, s)

	team, err := s.GetTeam(ctx, teamID)
	if err != nil {
		t.Fatalf("GetTeam: %v", err)
	}
	if team.Name != "Team Alpha" || len(team.Participants) != 1 || len(team.ScoringCriteria) != 1 {
		t.Fatalf("unexpected team: %+v", team)
	}
	if team.ScoringCriteria[0].ReceivedPoints != nil {
		t.Fatalf("received points must be unset, got %v", *team.ScoringCriteria[0].ReceivedPoints)
	}
	if team.AssignedStatus || len(team.AssignedPanelist) != 0 {
		t.Fatalf("fresh team must be unassigned: %+v", team)
	}

	h, err := s.GetHackathon(ctx, "h1")
	if err != nil {
		t.Fatalf("GetHackathon: %v", err)
	}
	if len(h.Teams) != 1 || h.Teams[0] != teamID || len(h.ScoringCriteria) != 1 {
		t.Fatalf("unexpected hackathon lists: %+v", h)
	}
}

func TestStore_CreateTeam_DuplicateNameCaseInsensitive(t *testing.T) {
	s, _ := newTestStore(t)
	seed(t, s)

	err := s.CreateTeam(context.Background(), domain.Team{ID: "t2", HackathonID: "h1", Name: "team ALPHA"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestStore_GetMissing_ReturnsErrNotFound(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetTeam(ctx, "nope"); err != ErrNotFound {
		t.Fatalf("GetTeam: expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetHackathon(ctx, "nope"); err != ErrNotFound {
		t.Fatalf("GetHackathon: expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetPanelist(ctx, "nope"); err != ErrNotFound {
		t.Fatalf("GetPanelist: expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetCriterion(ctx, "nope"); err != ErrNotFound {
		t.Fatalf("GetCriterion: expected ErrNotFound, got %v", err)
	}
}

func TestStore_LinkUnlink_BothViews(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	_, _, teamID := seed(t, s)

	if err := s.CreatePanelist(ctx, domain.Panelist{ID: "pn1", HackathonID: "h1", FirstName: "Pat", LastName: "Judge", Email: "pat@x.com", Speciality: []string{"AI"}}); err != nil {
		t.Fatalf("CreatePanelist: %v", err)
	}

	linked, err := s.Link(ctx, "pn1", teamID)
	if err != nil || !linked {
		t.Fatalf("Link: linked=%v err=%v", linked, err)
	}
	linked, err = s.Link(ctx, "pn1", teamID)
	if err != nil || linked {
		t.Fatalf("second Link must be ignored: linked=%v err=%v", linked, err)
	}

	p, err := s.GetPanelist(ctx, "pn1")
	if err != nil {
		t.Fatalf("GetPanelist: %v", err)
	}
	if len(p.Teams) != 1 || p.Teams[0] != teamID {
		t.Fatalf("panelist view: %+v", p.Teams)
	}
	if len(p.Speciality) != 1 || p.Speciality[0] != "AI" {
		t.Fatalf("speciality round trip: %+v", p.Speciality)
	}

	teams, err := s.ListTeamsAssignedTo(ctx, "pn1")
	if err != nil {
		t.Fatalf("ListTeamsAssignedTo: %v", err)
	}
	if len(teams) != 1 || !teams[0].AssignedStatus || teams[0].AssignedPanelist[0] != "pn1" {
		t.Fatalf("team view: %+v", teams)
	}

	removed, err := s.Unlink(ctx, "pn1", teamID)
	if err != nil || !removed {
		t.Fatalf("Unlink: removed=%v err=%v", removed, err)
	}
	team, _ := s.GetTeam(ctx, teamID)
	if team.AssignedStatus {
		t.Fatalf("team must be unassigned after unlink")
	}
}

func TestStore_InTx_RollsBackOnError(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()
	seed(t, s)

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx *Store) error {
		if err := tx.CreateTeam(ctx, domain.Team{ID: "t2", HackathonID: "h1", Name: "Beta"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got := mustCount(t, db, `SELECT COUNT(*) FROM teams`); got != 1 {
		t.Fatalf("expected rollback to leave 1 team, got %d", got)
	}
}

func TestStore_UpdateCriterion_PropagatesToInstances(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	_, criterionID, teamID := seed(t, s)

	if err := s.SetReceivedPoints(ctx, "tc1", 6); err != nil {
		t.Fatalf("SetReceivedPoints: %v", err)
	}
	top, ok, err := s.MaxReceivedForTemplate(ctx, criterionID)
	if err != nil || !ok || top != 6 {
		t.Fatalf("MaxReceivedForTemplate: top=%v ok=%v err=%v", top, ok, err)
	}

	if err := s.UpdateCriterion(ctx, domain.Criterion{ID: criterionID, Name: "Novelty", MaxPoints: 20}); err != nil {
		t.Fatalf("UpdateCriterion: %v", err)
	}
	team, err := s.GetTeam(ctx, teamID)
	if err != nil {
		t.Fatalf("GetTeam: %v", err)
	}
	c := team.ScoringCriteria[0]
	if c.Name != "Novelty" || c.MaxPoints != 20 || c.ReceivedPoints == nil || *c.ReceivedPoints != 6 {
		t.Fatalf("instance not propagated: %+v", c)
	}
}

func TestStore_SetReceivedPoints_CheckRejectsAboveMax(t *testing.T) {
	s, _ := newTestStore(t)
	seed(t, s)

	if err := s.SetReceivedPoints(context.Background(), "tc1", 11); err == nil {
		t.Fatalf("expected CHECK constraint failure")
	}
}

func TestStore_DeleteHackathon_Cascades(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()
	hackathonID, _, teamID := seed(t, s)

	_ = s.CreatePanelist(ctx, domain.Panelist{ID: "pn1", HackathonID: hackathonID, FirstName: "Pat", LastName: "Judge", Email: "pat@x.com"})
	_, _ = s.Link(ctx, "pn1", teamID)

	deleted, err := s.DeleteHackathon(ctx, hackathonID, "someone-else")
	if err != nil || deleted {
		t.Fatalf("non-owner delete: deleted=%v err=%v", deleted, err)
	}

	deleted, err = s.DeleteHackathon(ctx, hackathonID, "u1")
	if err != nil || !deleted {
		t.Fatalf("DeleteHackathon: deleted=%v err=%v", deleted, err)
	}

	for _, table := range []string{"criteria", "teams", "participants", "team_criteria", "panelists", "assignments"} {
		if got := mustCount(t, db, `SELECT COUNT(*) FROM `+table); got != 0 {
			t.Fatalf("expected %s to be empty after cascade, got %d", table, got)
		}
	}

	u, err := s.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if len(u.Hackathons) != 0 {
		t.Fatalf("owner still lists hackathons: %v", u.Hackathons)
	}
}

func TestStore_DeleteTeam_ScopedToHackathon(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()
	_, _, teamID := seed(t, s)

	deleted, err := s.DeleteTeam(ctx, teamID, "other-hackathon")
	if err != nil || deleted {
		t.Fatalf("foreign hackathon delete: deleted=%v err=%v", deleted, err)
	}

	deleted, err = s.DeleteTeam(ctx, teamID, "h1")
	if err != nil || !deleted {
		t.Fatalf("DeleteTeam: deleted=%v err=%v", deleted, err)
	}
	if got := mustCount(t, db, `SELECT COUNT(*) FROM participants`); got != 0 {
		t.Fatalf("participants must cascade, got %d", got)
	}
}

func TestStore_TeamTotals(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	seed(t, s)

	if err := s.CreateTeam(ctx, domain.Team{
		ID: "t2", HackathonID: "h1", Name: "Beta",
		ScoringCriteria: []domain.TeamCriterion{{ID: "tc2", TemplateID: "c1", Name: "Innovation", MaxPoints: 10}},
	}); err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	_ = s.SetReceivedPoints(ctx, "tc2", 9)

	totals, err := s.TeamTotals(ctx, "h1")
	if err != nil {
		t.Fatalf("TeamTotals: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("expected 2 rows, got %+v", totals)
	}
	if totals[0].TeamID != "t2" || totals[0].Received != 9 || totals[0].Scored != 1 {
		t.Fatalf("unexpected leader: %+v", totals[0])
	}
	if totals[1].TeamID != "t1" || totals[1].Received != 0 || totals[1].Scored != 0 || totals[1].Max != 10 {
		t.Fatalf("unexpected runner-up: %+v", totals[1])
	}
}
