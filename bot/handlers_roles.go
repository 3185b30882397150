package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/taskbot/core/access"
	"github.com/m3rciful/taskbot/core/dispatch"
	"github.com/m3rciful/taskbot/core/dispatch/session"
)

const (
	scratchTargetID   = "target_id"
	scratchTargetRole = "role"
)

// handleRolesAssignStart begins the role assignment workflow with a list
// of active users to pick from.
func (a *App) handleRolesAssignStart(rc *dispatch.Context, ev dispatch.Event) (*dispatch.Response, error) {
	if !rc.Caps.AssignRoles {
		return nil, dispatch.Unauthorized("")
	}

	users, err := a.directory.ListActive(rc)
	if err != nil {
		return nil, dispatch.Infra("list users", err)
	}

	resp := dispatch.TextResponse(msgPickUser)
	shown := 0
	for _, u := range users {
		if u.ExternalID == ev.Profile.ExternalID {
			continue
		}
		resp.WithRow(dispatch.Control{
			Label:    fmt.Sprintf("%s (%s)", u.DisplayName(), access.Label(u.Role)),
			ActionID: actAssignUser,
			Payload:  strconv.FormatInt(u.ExternalID, 10),
		})
		shown++
	}
	if shown == 0 {
		return dispatch.NoticeResponse("No other registered users yet."), nil
	}

	if _, err := a.engine.Begin(rc, ev.Profile.ExternalID, wfRoleAssignment); err != nil {
		return nil, dispatch.Infra("begin role assignment", err)
	}

	resp.WithRow(cancelRow())
	return resp, nil
}

// handleAssignUser stores the chosen target and moves to role selection.
func (a *App) handleAssignUser(rc *dispatch.Context, ev dispatch.Event) (session.Outcome, *dispatch.Response, error) {
	s := rc.Session
	if s == nil || s.Workflow != wfRoleAssignment || s.State != stSelectingUser {
		return session.Retry(), dispatch.NoticeResponse(msgStale), nil
	}

	targetID, err := strconv.ParseInt(strings.TrimSpace(ev.Payload), 10, 64)
	if err != nil {
		return session.Retry(), dispatch.NoticeResponse(msgStale), nil
	}

	target, err := a.directory.FindByExternalID(rc, targetID)
	if err != nil {
		return session.Retry(), nil, dispatch.Infra("load target user", err)
	}
	if target == nil {
		return session.Retry(), dispatch.NoticeResponse(msgUserGone), nil
	}

	resp := dispatch.TextResponse(fmt.Sprintf("%s\n\nCurrent role of %s: %s",
		msgPickRole, target.DisplayName(), access.Label(target.Role)))
	for _, role := range access.AllRoles {
		resp.WithRow(dispatch.Control{
			Label:    access.Label(role),
			ActionID: actAssignRole,
			Payload:  string(role),
		})
	}
	resp.WithRow(cancelRow())
	return session.Advance(stSelectingRole, map[string]any{scratchTargetID: targetID}), resp, nil
}

// handleAssignRole stores the chosen role and asks for confirmation.
func (a *App) handleAssignRole(rc *dispatch.Context, ev dispatch.Event) (session.Outcome, *dispatch.Response, error) {
	s := rc.Session
	if s == nil || s.Workflow != wfRoleAssignment || s.State != stSelectingRole {
		return session.Retry(), dispatch.NoticeResponse(msgStale), nil
	}

	role := access.Role(strings.TrimSpace(ev.Payload))
	if !access.Known(role) {
		return session.Retry(), dispatch.NoticeResponse(msgStale), nil
	}

	targetID, _ := s.GetInt64(scratchTargetID)
	resp := dispatch.TextResponse(fmt.Sprintf("Set user %d to %s?", targetID, access.Label(role)))
	resp.WithRow(dispatch.Control{Label: "✅ Confirm", ActionID: actConfirmRoleAssignment})
	resp.WithRow(cancelRow())
	return session.Advance(stConfirmingAssignment, map[string]any{scratchTargetRole: string(role)}), resp, nil
}

// handleConfirmRoleAssignment applies the change through the directory.
func (a *App) handleConfirmRoleAssignment(rc *dispatch.Context, ev dispatch.Event) (session.Outcome, *dispatch.Response, error) {
	s := rc.Session
	if s == nil || s.Workflow != wfRoleAssignment || s.State != stConfirmingAssignment {
		return session.Retry(), dispatch.NoticeResponse(msgStale), nil
	}

	targetID, okID := s.GetInt64(scratchTargetID)
	roleStr, okRole := s.GetString(scratchTargetRole)
	if !okID || !okRole {
		return session.Cancel(), dispatch.NoticeResponse(msgStale), nil
	}

	changed, err := a.directory.AssignRole(rc, targetID, access.Role(roleStr))
	if err != nil {
		return session.Retry(), nil, dispatch.Infra("assign role", err)
	}
	if !changed {
		return session.Cancel(), dispatch.NoticeResponse(msgUserGone), nil
	}

	resp := dispatch.TextResponse(fmt.Sprintf("%s User %d is now %s.",
		msgRoleAssigned, targetID, access.Label(access.Role(roleStr))))
	resp.WithRow(dispatch.Control{Label: "🏠 Menu", ActionID: actMenuMain})
	return session.Complete(), resp, nil
}
