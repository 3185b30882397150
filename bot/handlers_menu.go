package bot

import (
	"strings"

	"github.com/m3rciful/taskbot/core/dispatch"
)

// mainMenu builds the capability-gated main menu for the current user.
func (a *App) mainMenu(rc *dispatch.Context) *dispatch.Response {
	resp := dispatch.TextResponse("Main menu — pick a section:")

	if rc.Caps.CreateCompanies {
		resp.WithRow(dispatch.Control{Label: "🏢 Companies", ActionID: "menu:companies"})
	}
	if rc.Caps.CreateTasks {
		resp.WithRow(dispatch.Control{Label: "📋 Tasks", ActionID: "menu:tasks"})
	}
	if rc.Caps.AssignRoles {
		resp.WithRow(dispatch.Control{Label: "👥 Roles", ActionID: "menu:roles"})
	}
	if rc.Caps.ViewAnalytics {
		resp.WithRow(dispatch.Control{Label: "📊 Analytics", ActionID: "menu:analytics"})
	}
	if rc.Caps.ExecuteTasks {
		resp.WithRow(dispatch.Control{Label: "🔧 My tasks", ActionID: "menu:mytasks"})
	}
	return resp
}

// handleMenu serves every menu:* callback. Sections the user has no
// capability for are rejected before rendering.
func (a *App) handleMenu(rc *dispatch.Context, ev dispatch.Event) (*dispatch.Response, error) {
	section := strings.TrimPrefix(ev.Action, actMenuPrefix)

	switch section {
	case "main":
		return a.mainMenu(rc), nil

	case "companies":
		if !rc.Caps.CreateCompanies {
			return nil, dispatch.Unauthorized("")
		}
		resp := dispatch.TextResponse("🏢 Companies — what would you like to do?")
		resp.WithRow(dispatch.Control{Label: "➕ Create", ActionID: actCompanyCreate})
		resp.WithRow(dispatch.Control{Label: "📄 List", ActionID: actCompanyList})
		resp.WithRow(dispatch.Control{Label: "⬅️ Back", ActionID: actMenuMain})
		return resp, nil

	case "roles":
		if !rc.Caps.AssignRoles {
			return nil, dispatch.Unauthorized("")
		}
		resp := dispatch.TextResponse("👥 Roles — manage who does what.")
		resp.WithRow(dispatch.Control{Label: "🔁 Change a role", ActionID: actRolesAssign})
		resp.WithRow(dispatch.Control{Label: "⬅️ Back", ActionID: actMenuMain})
		return resp, nil

	case "tasks":
		if !rc.Caps.CreateTasks {
			return nil, dispatch.Unauthorized("")
		}
		return a.stubSection("📋 Task management is coming soon."), nil

	case "analytics":
		if !rc.Caps.ViewAnalytics {
			return nil, dispatch.Unauthorized("")
		}
		return a.stubSection("📊 Analytics is coming soon."), nil

	case "mytasks":
		if !rc.Caps.ExecuteTasks {
			return nil, dispatch.Unauthorized("")
		}
		return a.stubSection("🔧 Your task list is coming soon."), nil
	}

	return dispatch.NoticeResponse(msgUnknownCallback), nil
}

func (a *App) stubSection(text string) *dispatch.Response {
	resp := dispatch.TextResponse(text)
	resp.WithRow(dispatch.Control{Label: "⬅️ Back", ActionID: actMenuMain})
	return resp
}
