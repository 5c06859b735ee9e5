package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/maaaruch/hackjudge/internal/domain"
)

//go:embed schema.sql
var embeddedSchema embed.FS

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	q  querier
}

// Open opens the sqlite file at path with foreign keys on and writer-serializing
// transactions. The pool is capped at a single connection.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_txlock=immediate&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `PRAGMA foreign_keys = ON;`); err != nil {
		return err
	}

	b, err := embeddedSchema.ReadFile("schema.sql")
	if err != nil {
		return err
	}

	schema := strings.TrimSpace(string(b))
	_, err = s.db.ExecContext(ctx, schema)
	return err
}

// InTx runs fn against a Store bound to one transaction. fn's error rolls the
// transaction back. Calling InTx on a Store that is already inside a
// transaction reuses it.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	if _, ok := s.q.(*sql.Tx); ok {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&Store{db: s.db, q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %v", ErrConflict, err)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
	}
	return err
}

func (s *Store) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ---------- Users ----------

func (s *Store) CreateUser(ctx context.Context, u domain.User) error {
	_, err := s.q.ExecContext(ctx, `
INSERT INTO users(id, first_name, last_name, email, email_key, password_hash, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, u.ID, u.FirstName, u.LastName, u.Email, key(u.Email), u.PasswordHash, u.CreatedAt)
	return translate(err)
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.getUser(ctx, `id = ?`, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getUser(ctx, `email_key = ?`, key(email))
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*domain.User, error) {
	row := s.q.QueryRowContext(ctx, `
SELECT id, first_name, last_name, email, password_hash, created_at
FROM users WHERE `+where, arg)
	var u domain.User
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, translate(err)
	}
	ids, err := s.queryStrings(ctx, `SELECT id FROM hackathons WHERE owner_user_id = ? ORDER BY rowid`, u.ID)
	if err != nil {
		return nil, err
	}
	u.Hackathons = ids
	return &u, nil
}

// ---------- Hackathons ----------

func (s *Store) CreateHackathon(ctx context.Context, h domain.Hackathon) error {
	_, err := s.q.ExecContext(ctx, `
INSERT INTO hackathons(id, owner_user_id, name, team_min_size, team_max_size, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`, h.ID, h.OwnerUserID, h.Name, h.TeamMinSize, h.TeamMaxSize, h.CreatedAt)
	return translate(err)
}

func (s *Store) GetHackathon(ctx context.Context, id string) (*domain.Hackathon, error) {
	row := s.q.QueryRowContext(ctx, `
SELECT id, owner_user_id, name, team_min_size, team_max_size, created_at
FROM hackathons WHERE id = ?
`, id)
	var h domain.Hackathon
	if err := row.Scan(&h.ID, &h.OwnerUserID, &h.Name, &h.TeamMinSize, &h.TeamMaxSize, &h.CreatedAt); err != nil {
		return nil, translate(err)
	}
	if err := s.hydrateHackathon(ctx, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *Store) ListHackathonsByOwner(ctx context.Context, ownerID string) ([]domain.Hackathon, error) {
	rows, err := s.q.QueryContext(ctx, `
SELECT id, owner_user_id, name, team_min_size, team_max_size, created_at
FROM hackathons WHERE owner_user_id = ? ORDER BY rowid
`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hackathons := []domain.Hackathon{}
	for rows.Next() {
		var h domain.Hackathon
		if err := rows.Scan(&h.ID, &h.OwnerUserID, &h.Name, &h.TeamMinSize, &h.TeamMaxSize, &h.CreatedAt); err != nil {
			return nil, err
		}
		hackathons = append(hackathons, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range hackathons {
		if err := s.hydrateHackathon(ctx, &hackathons[i]); err != nil {
			return nil, err
		}
	}
	return hackathons, nil
}

func (s *Store) hydrateHackathon(ctx context.Context, h *domain.Hackathon) error {
	var err error
	if h.Panelists, err = s.queryStrings(ctx, `SELECT id FROM panelists WHERE hackathon_id = ? ORDER BY rowid`, h.ID); err != nil {
		return err
	}
	if h.ScoringCriteria, err = s.queryStrings(ctx, `SELECT id FROM criteria WHERE hackathon_id = ? ORDER BY rowid`, h.ID); err != nil {
		return err
	}
	if h.Teams, err = s.queryStrings(ctx, `SELECT id FROM teams WHERE hackathon_id = ? ORDER BY rowid`, h.ID); err != nil {
		return err
	}
	return nil
}

func (s *Store) UpdateHackathon(ctx context.Context, h domain.Hackathon) error {
	res, err := s.q.ExecContext(ctx, `
UPDATE hackathons SET name = ?, team_min_size = ?, team_max_size = ? WHERE id = ?
`, h.Name, h.TeamMinSize, h.TeamMaxSize, h.ID)
	if err != nil {
		return translate(err)
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// DeleteHackathon removes the hackathon owned by ownerID together with its
// criteria, teams, participants, panelists and assignments.
func (s *Store) DeleteHackathon(ctx context.Context, id, ownerID string) (bool, error) {
	res, err := s.q.ExecContext(ctx, `DELETE FROM hackathons WHERE id = ? AND owner_user_id = ?`, id, ownerID)
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (s *Store) IsHackathonOwner(ctx context.Context, hackathonID, userID string) (bool, error) {
	var cnt int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(1) FROM hackathons WHERE id = ? AND owner_user_id = ?`, hackathonID, userID).Scan(&cnt)
	if err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// ---------- Criteria ----------

func (s *Store) CreateCriterion(ctx context.Context, c domain.Criterion) error {
	_, err := s.q.ExecContext(ctx, `INSERT INTO criteria(id, hackathon_id, name, max_points) VALUES (?, ?, ?, ?)`,
		c.ID, c.HackathonID, c.Name, c.MaxPoints)
	return translate(err)
}

func (s *Store) GetCriterion(ctx context.Context, id string) (*domain.Criterion, error) {
	row := s.q.QueryRowContext(ctx, `SELECT id, hackathon_id, name, max_points FROM criteria WHERE id = ?`, id)
	var c domain.Criterion
	if err := row.Scan(&c.ID, &c.HackathonID, &c.Name, &c.MaxPoints); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *Store) ListCriteria(ctx context.Context, hackathonID string) ([]domain.Criterion, error) {
	rows, err := s.q.QueryContext(ctx, `
SELECT id, hackathon_id, name, max_points FROM criteria WHERE hackathon_id = ? ORDER BY rowid
`, hackathonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	criteria := []domain.Criterion{}
	for rows.Next() {
		var c domain.Criterion
		if err := rows.Scan(&c.ID, &c.HackathonID, &c.Name, &c.MaxPoints); err != nil {
			return nil, err
		}
		criteria = append(criteria, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return criteria, nil
}

// UpdateCriterion rewrites the template and every team instance copied from it.
func (s *Store) UpdateCriterion(ctx context.Context, c domain.Criterion) error {
	res, err := s.q.ExecContext(ctx, `UPDATE criteria SET name = ?, max_points = ? WHERE id = ?`, c.Name, c.MaxPoints, c.ID)
	if err != nil {
		return translate(err)
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	_, err = s.q.ExecContext(ctx, `UPDATE team_criteria SET name = ?, max_points = ? WHERE template_id = ?`, c.Name, c.MaxPoints, c.ID)
	return translate(err)
}

// MaxReceivedForTemplate reports the highest score recorded on any instance of
// the template. ok is false when no instance has been scored.
func (s *Store) MaxReceivedForTemplate(ctx context.Context, templateID string) (top float64, ok bool, err error) {
	var v sql.NullFloat64
	err = s.q.QueryRowContext(ctx, `SELECT MAX(received_points) FROM team_criteria WHERE template_id = ?`, templateID).Scan(&v)
	if err != nil {
		return 0, false, err
	}
	return v.Float64, v.Valid, nil
}

// ---------- Teams ----------

// CreateTeam inserts the team with its participants and criterion instances.
func (s *Store) CreateTeam(ctx context.Context, t domain.Team) error {
	if _, err := s.q.ExecContext(ctx, `INSERT INTO teams(id, hackathon_id, name, name_key) VALUES (?, ?, ?, ?)`,
		t.ID, t.HackathonID, t.Name, key(t.Name)); err != nil {
		return translate(err)
	}
	for _, p := range t.Participants {
		if _, err := s.q.ExecContext(ctx, `
INSERT INTO participants(id, team_id, first_name, last_name, email) VALUES (?, ?, ?, ?, ?)
`, p.ID, t.ID, p.FirstName, p.LastName, p.Email); err != nil {
			return translate(err)
		}
	}
	for i, c := range t.ScoringCriteria {
		var templateID any
		if c.TemplateID != "" {
			templateID = c.TemplateID
		}
		if _, err := s.q.ExecContext(ctx, `
INSERT INTO team_criteria(id, team_id, template_id, name, max_points, received_points, position)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, c.ID, t.ID, templateID, c.Name, c.MaxPoints, c.ReceivedPoints, i); err != nil {
			return translate(err)
		}
	}
	return nil
}

func (s *Store) GetTeam(ctx context.Context, id string) (*domain.Team, error) {
	row := s.q.QueryRowContext(ctx, `SELECT id, hackathon_id, name FROM teams WHERE id = ?`, id)
	var t domain.Team
	if err := row.Scan(&t.ID, &t.HackathonID, &t.Name); err != nil {
		return nil, translate(err)
	}
	if err := s.hydrateTeam(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) ListTeams(ctx context.Context, hackathonID string) ([]domain.Team, error) {
	return s.listTeams(ctx, `
SELECT id, hackathon_id, name FROM teams WHERE hackathon_id = ? ORDER BY rowid
`, hackathonID)
}

// ListTeamsAssignedTo reads the assignment relation from the team side.
func (s *Store) ListTeamsAssignedTo(ctx context.Context, panelistID string) ([]domain.Team, error) {
	return s.listTeams(ctx, `
SELECT t.id, t.hackathon_id, t.name
FROM teams t
JOIN assignments a ON a.team_id = t.id
WHERE a.panelist_id = ?
ORDER BY t.rowid
`, panelistID)
}

func (s *Store) listTeams(ctx context.Context, query string, args ...any) ([]domain.Team, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := []domain.Team{}
	for rows.Next() {
		var t domain.Team
		if err := rows.Scan(&t.ID, &t.HackathonID, &t.Name); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range teams {
		if err := s.hydrateTeam(ctx, &teams[i]); err != nil {
			return nil, err
		}
	}
	return teams, nil
}

func (s *Store) hydrateTeam(ctx context.Context, t *domain.Team) error {
	participants, err := s.ListParticipants(ctx, t.ID)
	if err != nil {
		return err
	}
	criteria, err := s.ListTeamCriteria(ctx, t.ID)
	if err != nil {
		return err
	}
	panelists, err := s.AssignedPanelistIDs(ctx, t.ID)
	if err != nil {
		return err
	}
	t.Participants = participants
	t.ScoringCriteria = criteria
	t.AssignedPanelist = panelists
	t.AssignedStatus = len(panelists) > 0
	return nil
}

func (s *Store) TeamNames(ctx context.Context, hackathonID string) ([]string, error) {
	return s.queryStrings(ctx, `SELECT name FROM teams WHERE hackathon_id = ? ORDER BY rowid`, hackathonID)
}

func (s *Store) CheckTeamInHackathon(ctx context.Context, teamID, hackathonID string) (bool, error) {
	var cnt int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(1) FROM teams WHERE id = ? AND hackathon_id = ?`, teamID, hackathonID).Scan(&cnt)
	if err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// DeleteTeam removes the team only if it belongs to hackathonID. Participants,
// criterion instances and assignments go with it.
func (s *Store) DeleteTeam(ctx context.Context, teamID, hackathonID string) (bool, error) {
	res, err := s.q.ExecContext(ctx, `DELETE FROM teams WHERE id = ? AND hackathon_id = ?`, teamID, hackathonID)
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (s *Store) ListParticipants(ctx context.Context, teamID string) ([]domain.Participant, error) {
	rows, err := s.q.QueryContext(ctx, `
SELECT id, first_name, last_name, email FROM participants WHERE team_id = ? ORDER BY rowid
`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := []domain.Participant{}
	for rows.Next() {
		p := domain.Participant{TeamID: teamID}
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return participants, nil
}

func (s *Store) ListTeamCriteria(ctx context.Context, teamID string) ([]domain.TeamCriterion, error) {
	rows, err := s.q.QueryContext(ctx, `
SELECT id, IFNULL(template_id, ''), name, max_points, received_points, position
FROM team_criteria
WHERE team_id = ?
ORDER BY position
`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	criteria := []domain.TeamCriterion{}
	for rows.Next() {
		c := domain.TeamCriterion{TeamID: teamID}
		var received sql.NullFloat64
		if err := rows.Scan(&c.ID, &c.TemplateID, &c.Name, &c.MaxPoints, &received, &c.Position); err != nil {
			return nil, err
		}
		if received.Valid {
			v := received.Float64
			c.ReceivedPoints = &v
		}
		criteria = append(criteria, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return criteria, nil
}

func (s *Store) SetReceivedPoints(ctx context.Context, teamCriterionID string, points float64) error {
	res, err := s.q.ExecContext(ctx, `UPDATE team_criteria SET received_points = ? WHERE id = ?`, points, teamCriterionID)
	if err != nil {
		return translate(err)
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// TeamTotals sums received and maximum points per team, best first.
func (s *Store) TeamTotals(ctx context.Context, hackathonID string) ([]domain.TeamTotal, error) {
	rows, err := s.q.QueryContext(ctx, `
SELECT
    t.id,
    t.name,
    IFNULL(SUM(tc.received_points), 0) AS received,
    IFNULL(SUM(tc.max_points), 0)      AS max,
    COUNT(tc.received_points)          AS scored,
    COUNT(tc.id)                       AS total
FROM teams t
LEFT JOIN team_criteria tc ON tc.team_id = t.id
WHERE t.hackathon_id = ?
GROUP BY t.id, t.name
ORDER BY received DESC, t.rowid
`, hackathonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := []domain.TeamTotal{}
	for rows.Next() {
		var r domain.TeamTotal
		if err := rows.Scan(&r.TeamID, &r.TeamName, &r.Received, &r.Max, &r.Scored, &r.Criteria); err != nil {
			return nil, err
		}
		totals = append(totals, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return totals, nil
}

// ---------- Panelists ----------

func (s *Store) CreatePanelist(ctx context.Context, p domain.Panelist) error {
	spec, err := json.Marshal(nonNil(p.Speciality))
	if err != nil {
		return err
	}
	_, err = s.q.ExecContext(ctx, `
INSERT INTO panelists(id, hackathon_id, first_name, last_name, email, email_key, speciality)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, p.ID, p.HackathonID, p.FirstName, p.LastName, p.Email, key(p.Email), string(spec))
	return translate(err)
}

func (s *Store) UpdatePanelist(ctx context.Context, p domain.Panelist) error {
	spec, err := json.Marshal(nonNil(p.Speciality))
	if err != nil {
		return err
	}
	res, err := s.q.ExecContext(ctx, `
UPDATE panelists SET first_name = ?, last_name = ?, email = ?, email_key = ?, speciality = ? WHERE id = ?
`, p.FirstName, p.LastName, p.Email, key(p.Email), string(spec), p.ID)
	if err != nil {
		return translate(err)
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetPanelist(ctx context.Context, id string) (*domain.Panelist, error) {
	panelists, err := s.listPanelists(ctx, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(panelists) == 0 {
		return nil, ErrNotFound
	}
	return &panelists[0], nil
}

func (s *Store) ListPanelists(ctx context.Context, hackathonID string) ([]domain.Panelist, error) {
	return s.listPanelists(ctx, `WHERE hackathon_id = ?`, hackathonID)
}

func (s *Store) FindPanelistsByEmail(ctx context.Context, email string) ([]domain.Panelist, error) {
	return s.listPanelists(ctx, `WHERE email_key = ?`, key(email))
}

func (s *Store) listPanelists(ctx context.Context, where string, args ...any) ([]domain.Panelist, error) {
	rows, err := s.q.QueryContext(ctx, `
SELECT id, hackathon_id, first_name, last_name, email, speciality
FROM panelists `+where+` ORDER BY rowid`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	panelists := []domain.Panelist{}
	for rows.Next() {
		var p domain.Panelist
		var spec string
		if err := rows.Scan(&p.ID, &p.HackathonID, &p.FirstName, &p.LastName, &p.Email, &spec); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(spec), &p.Speciality); err != nil {
			return nil, fmt.Errorf("panelist %s speciality: %w", p.ID, err)
		}
		p.Speciality = nonNil(p.Speciality)
		panelists = append(panelists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range panelists {
		teams, err := s.AssignedTeamIDs(ctx, panelists[i].ID)
		if err != nil {
			return nil, err
		}
		panelists[i].Teams = teams
	}
	return panelists, nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// ---------- Assignments ----------

func (s *Store) AssignedTeamIDs(ctx context.Context, panelistID string) ([]string, error) {
	return s.queryStrings(ctx, `SELECT team_id FROM assignments WHERE panelist_id = ? ORDER BY rowid`, panelistID)
}

func (s *Store) AssignedPanelistIDs(ctx context.Context, teamID string) ([]string, error) {
	return s.queryStrings(ctx, `SELECT panelist_id FROM assignments WHERE team_id = ? ORDER BY rowid`, teamID)
}

// Link records the assignment. It reports false when the pair was already linked.
func (s *Store) Link(ctx context.Context, panelistID, teamID string) (bool, error) {
	res, err := s.q.ExecContext(ctx, `INSERT OR IGNORE INTO assignments(panelist_id, team_id) VALUES (?, ?)`, panelistID, teamID)
	if err != nil {
		return false, translate(err)
	}
	return affected(res)
}

func (s *Store) Unlink(ctx context.Context, panelistID, teamID string) (bool, error) {
	res, err := s.q.ExecContext(ctx, `DELETE FROM assignments WHERE panelist_id = ? AND team_id = ?`, panelistID, teamID)
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (s *Store) IsAssigned(ctx context.Context, panelistID, teamID string) (bool, error) {
	var cnt int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(1) FROM assignments WHERE panelist_id = ? AND team_id = ?`, panelistID, teamID).Scan(&cnt)
	if err != nil {
		return false, err
	}
	return cnt > 0, nil
}
