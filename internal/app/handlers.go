package app

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/maaaruch/hackjudge/internal/apperr"
	"github.com/maaaruch/hackjudge/internal/domain"
	"github.com/maaaruch/hackjudge/internal/session"
)

const helpText = "Hi! This bot lets hackathon panelists score their teams.\n\n" +
	"Commands:\n" +
	"/login email hackathonID – log in with the details from your invitation mail\n" +
	"/teams – teams assigned to you\n" +
	"/criteria teamID – scoring criteria of a team with the points recorded so far\n" +
	"/score teamID s1 s2 ... – record one score per criterion, in the order /criteria lists them\n" +
	"/logout – forget your login"

const (
	cbTeam      = "team:"
	cbBackTeams = "back:teams"
)

// ---------- Updates ----------

func (a *App) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	chatID := msg.Chat.ID
	userID := msg.From.ID

	if !msg.IsCommand() {
		if strings.TrimSpace(msg.Text) != "" {
			a.reply(chatID, "Use /help to see what I can do.")
		}
		return
	}

	switch msg.Command() {
	case "start", "help":
		a.reply(chatID, helpText)

	case "login":
		a.handleLogin(ctx, msg)

	case "logout":
		a.sessions.Clear(userID)
		a.reply(chatID, "Logged out.")

	case "teams":
		if sess, ok := a.requireLogin(chatID, userID); ok {
			a.sendTeamList(ctx, chatID, sess)
		}

	case "criteria":
		sess, ok := a.requireLogin(chatID, userID)
		if !ok {
			return
		}
		args := strings.Fields(msg.CommandArguments())
		if len(args) != 1 {
			a.reply(chatID, "Format: /criteria teamID")
			return
		}
		a.sendCriteria(ctx, chatID, sess, args[0])

	case "score":
		a.handleScore(ctx, msg)

	default:
		a.reply(chatID, "Unknown command. Try /help")
	}
}

func (a *App) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.From == nil || cq.Message == nil {
		return
	}
	chatID := cq.Message.Chat.ID

	if _, err := a.bot.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		a.log.Debug("callback ack failed", "error", err)
	}

	sess, ok := a.requireLogin(chatID, cq.From.ID)
	if !ok {
		return
	}

	switch {
	case cq.Data == cbBackTeams:
		a.sendTeamList(ctx, chatID, sess)

	case strings.HasPrefix(cq.Data, cbTeam):
		a.sendCriteria(ctx, chatID, sess, strings.TrimPrefix(cq.Data, cbTeam))
	}
}

// ---------- Commands ----------

func (a *App) handleLogin(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := splitArgs(msg.CommandArguments(), 2)
	if len(args) != 2 {
		a.reply(chatID, "Format: /login email hackathonID")
		return
	}

	p, h, err := a.judge.Authenticate(ctx, args[0], args[1])
	if err != nil {
		a.replyErr(chatID, "login", err)
		return
	}
	sess := session.Session{
		PanelistID:    p.ID,
		PanelistName:  p.FirstName + " " + p.LastName,
		HackathonID:   h.ID,
		HackathonName: h.Name,
	}
	a.sessions.Set(msg.From.ID, sess)
	a.log.Info("panelist logged in via telegram", "panelist", p.ID, "hackathon", h.ID)

	a.reply(chatID, fmt.Sprintf("Welcome, %s! You are judging %s.", sess.PanelistName, sess.HackathonName))
	a.sendTeamList(ctx, chatID, sess)
}

func (a *App) handleScore(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	sess, ok := a.requireLogin(chatID, msg.From.ID)
	if !ok {
		return
	}

	teamID, scores, err := parseScoreArgs(msg.CommandArguments())
	if err != nil {
		a.reply(chatID, err.Error()+"\nFormat: /score teamID s1 s2 ...")
		return
	}
	if !a.checkAssigned(ctx, chatID, sess, teamID) {
		return
	}

	team, err := a.judge.RecordScores(ctx, teamID, scores)
	if err != nil {
		a.replyErr(chatID, "record scores", err)
		return
	}
	a.reply(chatID, "Scores saved.\n\n"+renderCriteria(team))
}

// ---------- Views ----------

func (a *App) sendTeamList(ctx context.Context, chatID int64, sess session.Session) {
	teams, err := a.judge.GetAssignedTeams(ctx, sess.PanelistID)
	if err != nil {
		a.replyErr(chatID, "list teams", err)
		return
	}
	if len(teams) == 0 {
		a.reply(chatID, "No teams are assigned to you yet.")
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(teams))
	for _, t := range teams {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(teamLabel(t), cbTeam+t.ID),
		))
	}
	m := tgbotapi.NewMessage(chatID, fmt.Sprintf("Your teams in %s:", sess.HackathonName))
	m.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	a.send(m)
}

func (a *App) sendCriteria(ctx context.Context, chatID int64, sess session.Session, teamID string) {
	if !a.checkAssigned(ctx, chatID, sess, teamID) {
		return
	}
	team, err := a.judge.GetTeam(ctx, teamID)
	if err != nil {
		a.replyErr(chatID, "load team", err)
		return
	}

	m := tgbotapi.NewMessage(chatID, truncate(renderCriteria(team)))
	m.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back to teams", cbBackTeams),
		),
	)
	a.send(m)
}

func renderCriteria(team *domain.Team) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (ID %s)\n\n", team.Name, team.ID)
	if len(team.ScoringCriteria) == 0 {
		sb.WriteString("This team has no scoring criteria.\n")
		return sb.String()
	}
	for i, c := range team.ScoringCriteria {
		got := "not scored"
		if c.ReceivedPoints != nil {
			got = fmt.Sprintf("%g", *c.ReceivedPoints)
		}
		fmt.Fprintf(&sb, "%d. %s: %s / %g\n", i+1, c.Name, got, c.MaxPoints)
	}
	fmt.Fprintf(&sb, "\nTo score: /score %s", team.ID)
	for range team.ScoringCriteria {
		sb.WriteString(" _")
	}
	return sb.String()
}

func teamLabel(t domain.Team) string {
	scored := 0
	for _, c := range t.ScoringCriteria {
		if c.ReceivedPoints != nil {
			scored++
		}
	}
	if len(t.ScoringCriteria) > 0 && scored == len(t.ScoringCriteria) {
		return "✅ " + t.Name
	}
	return fmt.Sprintf("%s (%d/%d)", t.Name, scored, len(t.ScoringCriteria))
}

// ---------- Helpers ----------

func (a *App) requireLogin(chatID, userID int64) (session.Session, bool) {
	sess := a.sessions.Get(userID)
	if !sess.LoggedIn() {
		a.reply(chatID, "Log in first: /login email hackathonID")
		return sess, false
	}
	return sess, true
}

func (a *App) checkAssigned(ctx context.Context, chatID int64, sess session.Session, teamID string) bool {
	ok, err := a.judge.IsAssigned(ctx, sess.PanelistID, teamID)
	if err != nil {
		a.replyErr(chatID, "check assignment", err)
		return false
	}
	if !ok {
		a.reply(chatID, "This team is not assigned to you.")
		return false
	}
	return true
}

// replyErr shows caller-facing failures and hides internal ones.
func (a *App) replyErr(chatID int64, op string, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindNotFound, apperr.KindForbidden, apperr.KindConflict, apperr.KindPrecondition:
		a.reply(chatID, apperr.Message(err))
	default:
		a.log.Error("telegram "+op, "error", err)
		a.reply(chatID, "Something went wrong, try again.")
	}
}
