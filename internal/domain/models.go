package domain

import "time"

const (
	DefaultTeamMinSize = 1
	DefaultTeamMaxSize = 4
)

type User struct {
	ID           string    `json:"_id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Hackathons   []string  `json:"hackathons"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Hackathon struct {
	ID              string    `json:"_id"`
	OwnerUserID     string    `json:"owner"`
	Name            string    `json:"hackathonName"`
	TeamMinSize     int       `json:"teamMinSize"`
	TeamMaxSize     int       `json:"teamMaxSize"`
	Panelists       []string  `json:"panelists"`
	ScoringCriteria []string  `json:"scoringCriteria"`
	Teams           []string  `json:"teams"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Criterion is a hackathon-level scoring template.
type Criterion struct {
	ID          string  `json:"_id"`
	HackathonID string  `json:"hackathon"`
	Name        string  `json:"criteria"`
	MaxPoints   float64 `json:"maxPoints"`
}

// TeamCriterion is a team-owned copy of a Criterion holding that team's score.
// ReceivedPoints is nil until the team is scored.
type TeamCriterion struct {
	ID             string   `json:"_id"`
	TeamID         string   `json:"team"`
	TemplateID     string   `json:"template,omitempty"`
	Name           string   `json:"criteria"`
	MaxPoints      float64  `json:"maxPoints"`
	ReceivedPoints *float64 `json:"receivedPoints,omitempty"`
	Position       int      `json:"-"`
}

type Participant struct {
	ID        string `json:"_id"`
	TeamID    string `json:"teamId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type Team struct {
	ID               string          `json:"_id"`
	HackathonID      string          `json:"hackathon"`
	Name             string          `json:"teamName"`
	Participants     []Participant   `json:"participants"`
	ScoringCriteria  []TeamCriterion `json:"scoringCriteria"`
	AssignedStatus   bool            `json:"assignedStatus"`
	AssignedPanelist []string        `json:"assignedPanelist"`
}

type Panelist struct {
	ID          string   `json:"_id"`
	HackathonID string   `json:"hackathon"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Email       string   `json:"email"`
	Speciality  []string `json:"speciality"`
	Teams       []string `json:"teams"`
}

type TeamTotal struct {
	TeamID   string  `json:"_id"`
	TeamName string  `json:"teamName"`
	Received float64 `json:"receivedPoints"`
	Max      float64 `json:"maxPoints"`
	Scored   int     `json:"scoredCriteria"`
	Criteria int     `json:"totalCriteria"`
}
