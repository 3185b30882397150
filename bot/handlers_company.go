package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/taskbot/core/dispatch"
	"github.com/m3rciful/taskbot/core/dispatch/session"
	"github.com/m3rciful/taskbot/core/paging"
	"github.com/m3rciful/taskbot/services/company"
)

const (
	scratchCompanyName = "name"
	scratchCompanyDesc = "description"
)

func cancelRow() dispatch.Control {
	return dispatch.Control{Label: "❌ Cancel", ActionID: actCancel}
}

// handleCompanyCreate begins the company creation workflow. Any session
// already in progress is replaced.
func (a *App) handleCompanyCreate(rc *dispatch.Context, ev dispatch.Event) (*dispatch.Response, error) {
	if !rc.Caps.CreateCompanies {
		return nil, dispatch.Unauthorized("")
	}
	if _, err := a.engine.Begin(rc, ev.Profile.ExternalID, wfCompanyCreation); err != nil {
		return nil, dispatch.Infra("begin company creation", err)
	}

	resp := dispatch.TextResponse(msgCompanyNamePrompt)
	resp.WithRow(cancelRow())
	return resp, nil
}

// handleCompanyName consumes the name step. Invalid input keeps the
// state and re-prompts.
func (a *App) handleCompanyName(rc *dispatch.Context, ev dispatch.Event) (session.Outcome, *dispatch.Response, error) {
	name := strings.TrimSpace(ev.Payload)
	if !company.ValidateName(name) {
		resp := dispatch.TextResponse(msgCompanyNameBad)
		resp.WithRow(cancelRow())
		return session.Retry(), resp, nil
	}

	resp := dispatch.TextResponse(msgCompanyDescPrompt)
	resp.WithRow(cancelRow())
	return session.Advance(stWaitingForDescription, map[string]any{scratchCompanyName: name}), resp, nil
}

// handleCompanyDescription consumes the optional description step; "-"
// skips it.
func (a *App) handleCompanyDescription(rc *dispatch.Context, ev dispatch.Event) (session.Outcome, *dispatch.Response, error) {
	desc := strings.TrimSpace(ev.Payload)
	if desc == "-" {
		desc = ""
	}
	if !company.ValidateDescription(desc) {
		resp := dispatch.TextResponse(msgCompanyDescBad)
		resp.WithRow(cancelRow())
		return session.Retry(), resp, nil
	}

	name, _ := rc.Session.GetString(scratchCompanyName)
	var b strings.Builder
	b.WriteString("Please confirm:\n\n")
	fmt.Fprintf(&b, "Name: %s\n", name)
	if desc != "" {
		fmt.Fprintf(&b, "Description: %s\n", desc)
	} else {
		b.WriteString("Description: —\n")
	}

	resp := dispatch.TextResponse(b.String())
	resp.WithRow(dispatch.Control{Label: "✅ Create", ActionID: actConfirmCompanyCreation})
	resp.WithRow(cancelRow())
	return session.Advance(stConfirmingCreation, map[string]any{scratchCompanyDesc: desc}), resp, nil
}

// handleConfirmCompanyCreation persists the drafted company. The session
// is only cleared once the write succeeded, so an infrastructure failure
// leaves the confirmation retryable.
func (a *App) handleConfirmCompanyCreation(rc *dispatch.Context, ev dispatch.Event) (session.Outcome, *dispatch.Response, error) {
	s := rc.Session
	if s == nil || s.Workflow != wfCompanyCreation || s.State != stConfirmingCreation {
		return session.Retry(), dispatch.NoticeResponse(msgStale), nil
	}

	name, ok := s.GetString(scratchCompanyName)
	if !ok || name == "" {
		return session.Cancel(), dispatch.NoticeResponse(msgStale), nil
	}
	desc, _ := s.GetString(scratchCompanyDesc)

	created, err := a.companies.Create(rc, name, desc, ev.Profile.ExternalID)
	if err != nil {
		if errors.Is(err, company.ErrDuplicateName) {
			resp := dispatch.TextResponse(msgCompanyDuplicate + " Enter a different name:")
			resp.WithRow(cancelRow())
			return session.Advance(stWaitingForName, nil), resp, nil
		}
		return session.Retry(), nil, dispatch.Infra("create company", err)
	}

	resp := dispatch.TextResponse(fmt.Sprintf("%s\n\n🏢 %s (#%d)", msgCompanyCreated, created.Name, created.ID))
	resp.WithRow(dispatch.Control{Label: "📄 To the list", ActionID: actCompanyList})
	resp.WithRow(dispatch.Control{Label: "🏠 Menu", ActionID: actMenuMain})
	return session.Complete(), resp, nil
}

// handleCompanyList shows the first page of active companies.
func (a *App) handleCompanyList(rc *dispatch.Context, ev dispatch.Event) (*dispatch.Response, error) {
	if !rc.Caps.IsManager {
		return nil, dispatch.Unauthorized("")
	}
	return a.renderCompaniesPage(rc, 0)
}

// handleCompaniesPage serves pagination controls; out-of-range requests
// are clamped, never failed. Page numbers in payloads are zero-based.
func (a *App) handleCompaniesPage(rc *dispatch.Context, ev dispatch.Event) (*dispatch.Response, error) {
	if !rc.Caps.IsManager {
		return nil, dispatch.Unauthorized("")
	}
	page, err := strconv.Atoi(strings.TrimSpace(ev.Payload))
	if err != nil {
		page = 0
	}
	return a.renderCompaniesPage(rc, page)
}

func (a *App) renderCompaniesPage(rc *dispatch.Context, page int) (*dispatch.Response, error) {
	companies, err := a.companies.ListActive(rc)
	if err != nil {
		return nil, dispatch.Infra("list companies", err)
	}
	if len(companies) == 0 {
		resp := dispatch.TextResponse(msgNoCompanies)
		resp.WithRow(dispatch.Control{Label: "➕ Create", ActionID: actCompanyCreate})
		resp.WithRow(dispatch.Control{Label: "🏠 Menu", ActionID: actMenuMain})
		return resp, nil
	}

	size := a.cfg.App.CompaniesPageSize
	page = paging.Clamp(page, len(companies), size)
	p, err := paging.Paginate(companies, page, size)
	if err != nil {
		return nil, dispatch.Infra("paginate companies", err)
	}

	resp := dispatch.TextResponse(fmt.Sprintf("🏢 Companies — page %d of %d:", p.Number+1, p.TotalPages))
	for _, c := range p.Items {
		resp.WithRow(dispatch.Control{
			Label:    c.Name,
			ActionID: actCompanyDetails,
			Payload:  strconv.FormatInt(c.ID, 10),
		})
	}

	var nav []dispatch.Control
	if p.HasPrev {
		nav = append(nav, dispatch.Control{
			Label:    "⬅️",
			ActionID: actCompaniesPage,
			Payload:  strconv.Itoa(p.Number - 1),
		})
	}
	if p.HasNext {
		nav = append(nav, dispatch.Control{
			Label:    "➡️",
			ActionID: actCompaniesPage,
			Payload:  strconv.Itoa(p.Number + 1),
		})
	}
	if len(nav) > 0 {
		resp.WithRow(nav...)
	}
	resp.WithRow(dispatch.Control{Label: "🏠 Menu", ActionID: actMenuMain})
	return resp, nil
}

// handleCompanyDetails renders one company card.
func (a *App) handleCompanyDetails(rc *dispatch.Context, ev dispatch.Event) (*dispatch.Response, error) {
	if !rc.Caps.IsManager {
		return nil, dispatch.Unauthorized("")
	}

	id, err := strconv.ParseInt(strings.TrimSpace(ev.Payload), 10, 64)
	if err != nil {
		return nil, dispatch.Validation("Broken company reference.")
	}

	c, err := a.companies.GetByID(rc, id)
	if err != nil {
		if errors.Is(err, company.ErrNotFound) {
			return nil, dispatch.NotFound("Company not found.")
		}
		return nil, dispatch.Infra("load company", err)
	}

	creator := fmt.Sprintf("user %d", c.CreatedBy)
	if who, err := a.directory.FindByExternalID(rc, c.CreatedBy); err == nil && who != nil {
		creator = who.DisplayName()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🏢 %s\n\n", c.Name)
	if c.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", c.Description)
	}
	fmt.Fprintf(&b, "Created by %s on %s", creator, c.CreatedAt.Format("2006-01-02"))

	resp := dispatch.TextResponse(b.String())
	if rc.Caps.CreateCompanies {
		resp.WithRow(dispatch.Control{
			Label:    "🗑 Remove",
			ActionID: actCompanyDeactivate,
			Payload:  strconv.FormatInt(c.ID, 10),
		})
	}
	resp.WithRow(dispatch.Control{Label: "⬅️ Back to list", ActionID: actCompanyList})
	return resp, nil
}

// handleCompanyDeactivate hides a company from listings. The record
// survives for audit.
func (a *App) handleCompanyDeactivate(rc *dispatch.Context, ev dispatch.Event) (*dispatch.Response, error) {
	if !rc.Caps.CreateCompanies {
		return nil, dispatch.Unauthorized("")
	}

	id, err := strconv.ParseInt(strings.TrimSpace(ev.Payload), 10, 64)
	if err != nil {
		return nil, dispatch.Validation("Broken company reference.")
	}

	ok, err := a.companies.Deactivate(rc, id)
	if err != nil {
		return nil, dispatch.Infra("deactivate company", err)
	}
	if !ok {
		return nil, dispatch.NotFound("Company not found.")
	}

	resp := dispatch.TextResponse("Company removed from listings.")
	resp.WithRow(dispatch.Control{Label: "📄 To the list", ActionID: actCompanyList})
	resp.WithRow(dispatch.Control{Label: "🏠 Menu", ActionID: actMenuMain})
	return resp, nil
}
