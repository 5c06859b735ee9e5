package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/maaaruch/hackjudge/internal/apperr"
	"github.com/maaaruch/hackjudge/internal/auth"
	"github.com/maaaruch/hackjudge/internal/judging"
	"github.com/maaaruch/hackjudge/internal/storage"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string, string) {}

type testAPI struct {
	t      *testing.T
	router *gin.Engine
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	st := storage.New(db)
	if err := st.InitSchema(context.Background()); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	judge := judging.New(st, nopNotifier{}, judging.Options{Log: log})
	authSvc := auth.NewService(st, auth.NewTokens("test-secret", time.Hour), time.Second, log)
	srv := New(judge, authSvc, Options{AllowOrigins: []string{"http://localhost:5173"}, Log: log})
	return &testAPI{t: t, router: srv.Router()}
}

type reply struct {
	status int
	body   map[string]any
}

func (r reply) obj(key string) map[string]any {
	m, _ := r.body[key].(map[string]any)
	return m
}

func (r reply) list(key string) []any {
	l, _ := r.body[key].([]any)
	return l
}

func (a *testAPI) do(method, path, token string, body io.Reader, contentType string) reply {
	a.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		a.t.Fatalf("%s %s: decode response %q: %v", method, path, w.Body.String(), err)
	}
	return reply{status: w.Code, body: out}
}

func (a *testAPI) json(method, path, token string, payload any) reply {
	a.t.Helper()
	b, err := json.Marshal(payload)
	if err != nil {
		a.t.Fatalf("marshal: %v", err)
	}
	return a.do(method, path, token, bytes.NewReader(b), "application/json")
}

func (a *testAPI) upload(path, token, filename, content string) reply {
	a.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		a.t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := io.WriteString(fw, content); err != nil {
		a.t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		a.t.Fatalf("close multipart: %v", err)
	}
	return a.do(http.MethodPost, path, token, &buf, mw.FormDataContentType())
}

func (a *testAPI) expect(r reply, status int) reply {
	a.t.Helper()
	if r.status != status {
		a.t.Fatalf("expected status %d, got %d: %v", status, r.status, r.body)
	}
	if ok, _ := r.body["success"].(bool); ok != (status < 400) {
		a.t.Fatalf("success flag %v does not match status %d", r.body["success"], status)
	}
	return r
}

// organizer signs up a creator and returns its user id and token.
func (a *testAPI) organizer(email string) (string, string) {
	a.t.Helper()
	a.expect(a.json(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"firstName": "Org", "lastName": "One", "email": email, "password": "secret12", "confirmPassword": "secret12",
	}), http.StatusOK)
	r := a.expect(a.json(http.MethodPost, "/api/v1/auth/creatorLogin", "", map[string]string{
		"email": email, "password": "secret12",
	}), http.StatusOK)
	return r.obj("user")["_id"].(string), r.body["token"].(string)
}

func (a *testAPI) hackathon(token string) string {
	a.t.Helper()
	r := a.expect(a.json(http.MethodPost, "/api/v1/hackathon/createHackathon", token, map[string]any{
		"hackathonName": "Spring Hack", "teamMinSize": 1, "teamMaxSize": 3,
	}), http.StatusCreated)
	return r.obj("hackathon")["_id"].(string)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind apperr.Kind
		want int
	}{
		{apperr.KindValidation, http.StatusBadRequest},
		{apperr.KindUnauthorized, http.StatusUnauthorized},
		{apperr.KindForbidden, http.StatusForbidden},
		{apperr.KindNotFound, http.StatusNotFound},
		{apperr.KindConflict, http.StatusConflict},
		{apperr.KindPrecondition, http.StatusPreconditionFailed},
		{apperr.KindDependency, http.StatusServiceUnavailable},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.kind); got != tt.want {
			t.Fatalf("statusFor(%q) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestIDList_AcceptsStringOrArray(t *testing.T) {
	var one, many assignRequest
	if err := json.Unmarshal([]byte(`{"teamID":"t1"}`), &one); err != nil {
		t.Fatalf("single id: %v", err)
	}
	if err := json.Unmarshal([]byte(`{"teamID":["t1","t2"]}`), &many); err != nil {
		t.Fatalf("array: %v", err)
	}
	if len(one.TeamID) != 1 || len(many.TeamID) != 2 {
		t.Fatalf("unexpected ids: %v %v", one.TeamID, many.TeamID)
	}
	if err := json.Unmarshal([]byte(`{"teamID":7}`), &one); err == nil {
		t.Fatalf("expected error for a number")
	}
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t)
	a.expect(a.do(http.MethodGet, "/", "", nil, ""), http.StatusOK)
}

func TestAuthRequired(t *testing.T) {
	a := newTestAPI(t)

	a.expect(a.do(http.MethodGet, "/api/v1/hackathon/getTeams/x", "", nil, ""), http.StatusUnauthorized)
	a.expect(a.do(http.MethodGet, "/api/v1/hackathon/getTeams/x", "not-a-jwt", nil, ""), http.StatusUnauthorized)

	_, token := a.organizer("org@x.com")
	a.expect(a.do(http.MethodGet, "/api/v1/panelist/getTeamList/x", token, nil, ""), http.StatusForbidden)
}

func TestCreatorLogin_WrongPassword(t *testing.T) {
	a := newTestAPI(t)
	a.organizer("org@x.com")

	a.expect(a.json(http.MethodPost, "/api/v1/auth/creatorLogin", "", map[string]string{
		"email": "org@x.com", "password": "nope",
	}), http.StatusUnauthorized)
	a.expect(a.json(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"firstName": "Org", "lastName": "One", "email": "org@x.com", "password": "a", "confirmPassword": "a",
	}), http.StatusConflict)
}

func TestJudgingFlow(t *testing.T) {
	a := newTestAPI(t)
	_, org := a.organizer("org@x.com")
	hid := a.hackathon(org)

	// teams cannot be uploaded before criteria exist
	csv := "Team,Name,Email\nAlpha,John Doe,john@x.com\nBeta,Jane Roe,jane@x.com\n"
	a.expect(a.upload("/api/v1/team/uploadTeams/"+hid, org, "teams.csv", csv), http.StatusPreconditionFailed)

	a.expect(a.json(http.MethodPost, "/api/v1/hackathon/createCriteria/"+hid, org, map[string]any{
		"criteria": "Innovation", "maxPoints": 10,
	}), http.StatusOK)

	r := a.expect(a.upload("/api/v1/team/uploadTeams/"+hid, org, "teams.csv", csv), http.StatusCreated)
	teams := r.list("teams")
	if len(teams) != 2 {
		t.Fatalf("expected 2 teams, got %d", len(teams))
	}
	alpha := teams[0].(map[string]any)["_id"].(string)
	beta := teams[1].(map[string]any)["_id"].(string)

	a.expect(a.upload("/api/v1/team/uploadTeams/"+hid, org, "teams.csv", "Team\nalpha,X Y,x@x.com\n"), http.StatusConflict)
	a.expect(a.upload("/api/v1/team/uploadTeams/"+hid, org, "teams.pdf", csv), http.StatusBadRequest)

	r = a.expect(a.json(http.MethodPost, "/api/v1/hackathon/createPanelist", org, map[string]any{
		"firstName": "Pat", "lastName": "Judge", "email": "pat@x.com", "speciality": "AI, Web", "hackathonId": hid,
	}), http.StatusOK)
	panelistID := r.obj("panelist")["_id"].(string)

	r = a.expect(a.json(http.MethodPost, "/api/v1/hackathon/assignTeam", org, map[string]any{
		"teamID": alpha, "panelistID": panelistID,
	}), http.StatusOK)
	if got := r.obj("panelist")["teams"].([]any); len(got) != 1 {
		t.Fatalf("expected 1 assigned team, got %v", got)
	}
	a.expect(a.json(http.MethodPost, "/api/v1/hackathon/assignTeam", org, map[string]any{
		"teamID": []string{alpha}, "panelistID": panelistID,
	}), http.StatusConflict)

	r = a.expect(a.json(http.MethodPost, "/api/v1/auth/panelistLogin", "", map[string]string{
		"email": "pat@x.com", "hackathonID": hid,
	}), http.StatusOK)
	pat := r.body["token"].(string)

	r = a.expect(a.do(http.MethodGet, "/api/v1/panelist/getTeamList/"+panelistID, pat, nil, ""), http.StatusOK)
	if len(r.list("teams")) != 1 {
		t.Fatalf("expected 1 team for panelist, got %v", r.body["teams"])
	}
	a.expect(a.do(http.MethodGet, "/api/v1/panelist/getTeamList/someone-else", pat, nil, ""), http.StatusForbidden)

	a.expect(a.json(http.MethodPost, "/api/v1/panelist/updateTeamScore", pat, map[string]any{
		"teamId": alpha, "scores": []float64{11},
	}), http.StatusBadRequest)
	a.expect(a.json(http.MethodPost, "/api/v1/panelist/updateTeamScore", pat, map[string]any{
		"teamId": beta, "scores": []float64{5},
	}), http.StatusForbidden)
	r = a.expect(a.json(http.MethodPost, "/api/v1/panelist/updateTeamScore", pat, map[string]any{
		"teamId": alpha, "scores": []float64{8},
	}), http.StatusOK)
	crit := r.obj("updatedTeam")["scoringCriteria"].([]any)[0].(map[string]any)
	if crit["receivedPoints"] != 8.0 {
		t.Fatalf("unexpected criterion after scoring: %v", crit)
	}

	r = a.expect(a.do(http.MethodGet, "/api/v1/hackathon/leaderboard/"+hid, org, nil, ""), http.StatusOK)
	board := r.list("leaderboard")
	if len(board) != 2 || board[0].(map[string]any)["teamName"] != "Alpha" {
		t.Fatalf("unexpected leaderboard: %v", board)
	}

	a.expect(a.json(http.MethodPost, "/api/v1/hackathon/unassignTeam", org, map[string]any{
		"teamID": []string{alpha}, "panelistID": panelistID,
	}), http.StatusOK)
	a.expect(a.do(http.MethodGet, "/api/v1/panelist/getCriteria/"+alpha, pat, nil, ""), http.StatusForbidden)
}

func TestOrganizerRoutes_ScopedToOwner(t *testing.T) {
	a := newTestAPI(t)
	_, alice := a.organizer("alice@x.com")
	bobID, bob := a.organizer("bob@x.com")
	hid := a.hackathon(alice)

	a.expect(a.do(http.MethodGet, "/api/v1/hackathon/getHackathon/"+hid, bob, nil, ""), http.StatusNotFound)
	a.expect(a.json(http.MethodPost, "/api/v1/hackathon/createCriteria/"+hid, bob, map[string]any{
		"criteria": "Design", "maxPoints": 5,
	}), http.StatusNotFound)
	a.expect(a.json(http.MethodDelete, "/api/v1/hackathon/deleteHackathon", bob, map[string]string{
		"hackathonId": hid,
	}), http.StatusNotFound)

	r := a.expect(a.do(http.MethodGet, "/api/v1/hackathon/getHackathonsList/"+bobID, bob, nil, ""), http.StatusOK)
	if len(r.list("hackathons")) != 0 {
		t.Fatalf("bob should own no hackathons: %v", r.body)
	}
	a.expect(a.do(http.MethodGet, "/api/v1/hackathon/getHackathonsList/"+bobID, alice, nil, ""), http.StatusForbidden)

	a.expect(a.json(http.MethodDelete, "/api/v1/hackathon/deleteHackathon", alice, map[string]string{
		"hackathonId": hid,
	}), http.StatusOK)
	a.expect(a.do(http.MethodGet, "/api/v1/hackathon/getHackathon/"+hid, alice, nil, ""), http.StatusNotFound)
}

func TestPanelistLogin_Errors(t *testing.T) {
	a := newTestAPI(t)
	_, org := a.organizer("org@x.com")
	hid := a.hackathon(org)
	other := a.hackathon(org)
	a.expect(a.json(http.MethodPost, "/api/v1/hackathon/createPanelist", org, map[string]any{
		"firstName": "Pat", "lastName": "Judge", "email": "pat@x.com", "hackathonId": hid,
	}), http.StatusOK)

	a.expect(a.json(http.MethodPost, "/api/v1/auth/panelistLogin", "", map[string]string{
		"email": "pat@x.com", "hackathonID": other,
	}), http.StatusForbidden)
	a.expect(a.json(http.MethodPost, "/api/v1/auth/panelistLogin", "", map[string]string{
		"email": "ghost@x.com", "hackathonID": hid,
	}), http.StatusNotFound)
	a.expect(a.json(http.MethodPost, "/api/v1/auth/panelistLogin", "", map[string]string{
		"email": "pat@x.com",
	}), http.StatusBadRequest)
}
