package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/taskbot/core/access"
	"github.com/m3rciful/taskbot/core/dispatch"
	"github.com/m3rciful/taskbot/core/dispatch/session"
	"github.com/m3rciful/taskbot/core/logger"
	"github.com/m3rciful/taskbot/services/identity"
)

// handleStart serves both /start and /register: registered users get the
// main menu, everyone else gets the role-selection keyboard.
func (a *App) handleStart(rc *dispatch.Context, ev dispatch.Event) (*dispatch.Response, error) {
	if rc.Registered() {
		return a.mainMenu(rc), nil
	}

	resp := dispatch.TextResponse(msgChooseRole)
	for _, role := range access.AllRoles {
		resp.WithRow(dispatch.Control{
			Label:    access.Label(role),
			ActionID: actRegisterRole,
			Payload:  string(role),
		})
	}
	resp.WithRow(dispatch.Control{Label: "❌ Cancel", ActionID: actCancelRegistration})
	return resp, nil
}

// handleRegisterRole completes registration from the role-selection
// keyboard. It is entry-listed, so it runs without a resolved identity.
func (a *App) handleRegisterRole(rc *dispatch.Context, ev dispatch.Event) (*dispatch.Response, error) {
	if rc.Registered() {
		return dispatch.NoticeResponse(msgAlreadyRegistered), nil
	}

	role := access.Role(strings.TrimSpace(ev.Payload))
	if !access.Known(role) {
		return nil, dispatch.Validation("Unknown role selected, try /start again.")
	}

	profile := ev.Profile
	if rc.EntryProfile != nil {
		profile = *rc.EntryProfile
	}

	id, err := a.directory.Create(rc, profile, role)
	if err != nil {
		if errors.Is(err, identity.ErrAlreadyRegistered) {
			return dispatch.NoticeResponse(msgAlreadyRegistered), nil
		}
		return nil, dispatch.Infra("register user", err)
	}

	rc.Identity = id
	rc.Caps = access.Resolve(id.Role)

	resp := a.mainMenu(rc)
	resp.Text = fmt.Sprintf("Registered as %s. Welcome, %s!\n\n%s",
		access.Label(id.Role), id.DisplayName(), resp.Text)
	return resp, nil
}

func (a *App) handleCancelRegistration(rc *dispatch.Context, ev dispatch.Event) (*dispatch.Response, error) {
	return dispatch.NoticeResponse(msgRegistrationCancelled), nil
}

// handleWhoami prints the resolved identity and its capability summary.
func (a *App) handleWhoami(rc *dispatch.Context, ev dispatch.Event) (*dispatch.Response, error) {
	id := rc.Identity

	var b strings.Builder
	fmt.Fprintf(&b, "👤 %s\n", id.DisplayName())
	if id.Username != "" {
		fmt.Fprintf(&b, "Username: @%s\n", id.Username)
	}
	fmt.Fprintf(&b, "Role: %s\n", access.Label(id.Role))

	var caps []string
	if rc.Caps.CreateCompanies {
		caps = append(caps, "create companies")
	}
	if rc.Caps.CreateTasks {
		caps = append(caps, "create tasks")
	}
	if rc.Caps.AssignRoles {
		caps = append(caps, "assign roles")
	}
	if rc.Caps.ViewAnalytics {
		caps = append(caps, "view analytics")
	}
	if rc.Caps.ExecuteTasks {
		caps = append(caps, "execute tasks")
	}
	if len(caps) == 0 {
		caps = append(caps, "none")
	}
	fmt.Fprintf(&b, "Can: %s", strings.Join(caps, ", "))

	return dispatch.TextResponse(b.String()), nil
}

func (a *App) handleHelp(rc *dispatch.Context, ev dispatch.Event) (*dispatch.Response, error) {
	var b strings.Builder
	b.WriteString("Available commands:\n")
	b.WriteString("/start — main menu\n")
	b.WriteString("/whoami — who you are\n")
	b.WriteString("/cancel — abort the current flow\n")
	b.WriteString("/help — this message\n")

	switch {
	case rc.Caps.AssignRoles:
		b.WriteString("\nAs a director you can create companies, manage tasks, assign roles, and view analytics.")
	case rc.Caps.IsManager:
		b.WriteString("\nAs a manager you can create companies and manage tasks.")
	case rc.Caps.ExecuteTasks:
		b.WriteString("\nYou receive and execute tasks assigned to you.")
	}
	return dispatch.TextResponse(b.String()), nil
}

// handleCancelCommand aborts whatever workflow is active. A cancel with
// no session is still acknowledged.
func (a *App) handleCancelCommand(rc *dispatch.Context, ev dispatch.Event) (*dispatch.Response, error) {
	if rc.Session == nil {
		return dispatch.TextResponse(msgNothingToCancel), nil
	}
	if _, err := a.engine.Apply(rc, ev.Profile.ExternalID, rc.Session, session.Cancel()); err != nil {
		return nil, dispatch.Infra("cancel workflow", err)
	}
	rc.Session = nil
	resp := dispatch.TextResponse(msgCancelled)
	resp.WithRow(dispatch.Control{Label: "🏠 Menu", ActionID: actMenuMain})
	return resp, nil
}

// handleCancel is the inline cancel button, valid from every workflow
// state.
func (a *App) handleCancel(rc *dispatch.Context, ev dispatch.Event) (session.Outcome, *dispatch.Response, error) {
	resp := dispatch.TextResponse(msgCancelled)
	resp.WithRow(dispatch.Control{Label: "🏠 Menu", ActionID: actMenuMain})
	return session.Cancel(), resp, nil
}

func (a *App) handleUnknown(rc *dispatch.Context, ev dispatch.Event) (*dispatch.Response, error) {
	logger.Debug(rc, "dispatch", "event.unmatched",
		slog.String("kind", ev.Kind.String()),
		slog.Int64("user_id", ev.Profile.ExternalID),
	)
	switch ev.Kind {
	case dispatch.KindCallback:
		return dispatch.NoticeResponse(msgUnknownCallback), nil
	case dispatch.KindCommand:
		return dispatch.TextResponse(msgUnknownCommand), nil
	}
	// Free text outside a workflow gets a gentle nudge.
	return dispatch.TextResponse(msgUnknownCommand), nil
}

func (a *App) handleSystemError(rc *dispatch.Context, ev dispatch.Event) (*dispatch.Response, error) {
	return dispatch.TextResponse(msgSystemError), nil
}
