package judging

import (
	"context"
	"errors"
	"strings"

	"github.com/maaaruch/hackjudge/internal/apperr"
	"github.com/maaaruch/hackjudge/internal/domain"
	"github.com/maaaruch/hackjudge/internal/storage"
)

type ParticipantInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ParseRow splits a spreadsheet row [teamName, name1, email1, name2, email2, ...]
// into a trimmed team name and the name/email pairs where both cells are set.
func ParseRow(row []string) (string, []ParticipantInput) {
	if len(row) == 0 {
		return "", nil
	}
	name := strings.TrimSpace(row[0])
	var participants []ParticipantInput
	for j := 1; j < len(row); j += 2 {
		pname := strings.TrimSpace(row[j])
		var email string
		if j+1 < len(row) {
			email = strings.TrimSpace(row[j+1])
		}
		if pname != "" && email != "" {
			participants = append(participants, ParticipantInput{Name: pname, Email: email})
		}
	}
	return name, participants
}

// SplitName takes the first token as the first name and the rest as the last
// name, "-" when there is only one token.
func SplitName(full string) (first, last string) {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return "", "-"
	}
	last = strings.Join(fields[1:], " ")
	if last == "" {
		last = "-"
	}
	return fields[0], last
}

// ImportTeams creates one team per row. Rows with a blank team name are
// skipped, and a sheet of only such rows imports nothing. Team size bounds
// are advisory here: a team outside them is created and logged. The batch is validated as a whole before anything is written and
// then committed in one transaction, so a failing row leaves no teams behind.
func (s *Service) ImportTeams(ctx context.Context, hackathonID string, rows [][]string) ([]domain.Team, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var out []domain.Team
	err := s.store.InTx(ctx, func(tx *storage.Store) error {
		h, err := tx.GetHackathon(ctx, hackathonID)
		if err != nil {
			return fail(err, "hackathon %s not found", hackathonID)
		}
		templates, err := tx.ListCriteria(ctx, hackathonID)
		if err != nil {
			return fail(err, "list criteria")
		}
		if len(templates) == 0 {
			return apperr.New(apperr.KindPrecondition, "scoring criteria is not set, cannot upload teams")
		}
		existing, err := tx.TeamNames(ctx, hackathonID)
		if err != nil {
			return fail(err, "list team names")
		}

		teams, err := s.planTeams(h, templates, existing, rows)
		if err != nil {
			return err
		}
		for _, t := range teams {
			if err := tx.CreateTeam(ctx, t); err != nil {
				if errors.Is(err, storage.ErrConflict) {
					return apperr.New(apperr.KindConflict, "team %q already exists in this hackathon", t.Name)
				}
				return fail(err, "save team %q", t.Name)
			}
		}
		out = teams
		return nil
	})
	if err != nil {
		return nil, fail(err, "import teams")
	}
	s.log.Info("teams imported", "hackathon", hackathonID, "count", len(out))
	return out, nil
}

// CreateTeam adds a single team through the same checks as an import row.
func (s *Service) CreateTeam(ctx context.Context, hackathonID, name string, participants []ParticipantInput) (*domain.Team, error) {
	row := []string{name}
	for _, p := range participants {
		row = append(row, p.Name, p.Email)
	}
	if strings.TrimSpace(name) == "" {
		return nil, apperr.New(apperr.KindValidation, "team name is required")
	}
	teams, err := s.ImportTeams(ctx, hackathonID, [][]string{row})
	if err != nil {
		return nil, err
	}
	return &teams[0], nil
}

func (s *Service) planTeams(h *domain.Hackathon, templates []domain.Criterion, existing []string, rows [][]string) ([]domain.Team, error) {
	taken := make(map[string]int, len(existing))
	for _, n := range existing {
		taken[strings.ToLower(n)] = 0
	}

	var teams []domain.Team
	for i, row := range rows {
		rowNum := i + 1
		name, inputs := ParseRow(row)
		if name == "" {
			continue
		}

		k := strings.ToLower(name)
		if prev, dup := taken[k]; dup {
			if prev == 0 {
				return nil, apperr.New(apperr.KindConflict, "row %d: team %q already exists in this hackathon", rowNum, name)
			}
			return nil, apperr.New(apperr.KindConflict, "row %d: team %q duplicates row %d", rowNum, name, prev)
		}
		taken[k] = rowNum

		if n := len(inputs); n < h.TeamMinSize || n > h.TeamMaxSize {
			s.log.Warn("team size outside hackathon bounds",
				"hackathon", h.ID, "row", rowNum, "team", name, "participants", n,
				"min", h.TeamMinSize, "max", h.TeamMaxSize)
		}

		teamID := s.newID()
		participants := make([]domain.Participant, 0, len(inputs))
		for _, in := range inputs {
			first, last := SplitName(in.Name)
			participants = append(participants, domain.Participant{
				ID:        s.newID(),
				TeamID:    teamID,
				FirstName: first,
				LastName:  last,
				Email:     in.Email,
			})
		}
		teams = append(teams, domain.Team{
			ID:               teamID,
			HackathonID:      h.ID,
			Name:             name,
			Participants:     participants,
			ScoringCriteria:  s.copyCriteria(teamID, templates),
			AssignedPanelist: []string{},
		})
	}
	if teams == nil {
		teams = []domain.Team{}
	}
	return teams, nil
}

// DeleteTeam removes a team of hackathonID with its participants, criterion
// instances and assignments.
func (s *Service) DeleteTeam(ctx context.Context, teamID, hackathonID string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	deleted, err := s.store.DeleteTeam(ctx, teamID, hackathonID)
	if err != nil {
		return fail(err, "delete team %s", teamID)
	}
	if !deleted {
		return apperr.New(apperr.KindNotFound, "team not found in the specified hackathon")
	}
	s.log.Info("team deleted", "team", teamID, "hackathon", hackathonID)
	return nil
}

func (s *Service) GetTeams(ctx context.Context, hackathonID string) ([]domain.Team, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if _, err := s.store.GetHackathon(ctx, hackathonID); err != nil {
		return nil, fail(err, "hackathon %s not found", hackathonID)
	}
	teams, err := s.store.ListTeams(ctx, hackathonID)
	if err != nil {
		return nil, fail(err, "list teams")
	}
	return teams, nil
}

func (s *Service) GetTeam(ctx context.Context, teamID string) (*domain.Team, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	t, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return nil, fail(err, "team %s not found", teamID)
	}
	return t, nil
}
