package bot

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/taskbot/core/access"
	"github.com/m3rciful/taskbot/core/dispatch"
	"github.com/m3rciful/taskbot/core/dispatch/session"
	"github.com/m3rciful/taskbot/services/company"
	"github.com/m3rciful/taskbot/services/identity"
)

type fixture struct {
	app       *App
	directory *identity.MemoryDirectory
	companies *company.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := identity.NewMemoryDirectory()
	companies := company.NewService(company.NewMemoryRepository())
	cfg := &Config{App: Settings{CompaniesPageSize: 8}}

	app, err := NewApp(cfg, Deps{
		Directory: dir,
		Companies: companies,
		Sessions:  session.NewMemoryStore(),
	})
	require.NoError(t, err)

	return &fixture{app: app, directory: dir, companies: companies}
}

func (f *fixture) seedDirector(id int64) {
	f.directory.Seed(dispatch.Identity{
		ExternalID: id,
		Username:   "boss",
		FirstName:  "Boss",
		Role:       access.RoleDirector,
		Active:     true,
	})
}

func (f *fixture) seedAdmin(id int64) {
	f.directory.Seed(dispatch.Identity{
		ExternalID: id,
		FirstName:  "Ops",
		Role:       access.RoleChiefAdmin,
		Active:     true,
	})
}

func (f *fixture) command(id int64, name string) *dispatch.Response {
	return f.app.Dispatch(context.Background(), dispatch.Event{
		Kind:    dispatch.KindCommand,
		Command: name,
		Profile: dispatch.Profile{ExternalID: id, FirstName: "U"},
	})
}

func (f *fixture) text(id int64, payload string) *dispatch.Response {
	return f.app.Dispatch(context.Background(), dispatch.Event{
		Kind:    dispatch.KindFreeText,
		Payload: payload,
		Profile: dispatch.Profile{ExternalID: id, FirstName: "U"},
	})
}

func (f *fixture) callback(id int64, action, payload string) *dispatch.Response {
	return f.app.Dispatch(context.Background(), dispatch.Event{
		Kind:    dispatch.KindCallback,
		Action:  action,
		Payload: payload,
		Profile: dispatch.Profile{ExternalID: id, FirstName: "U"},
	})
}

func controlActions(resp *dispatch.Response) []string {
	var out []string
	for _, row := range resp.Controls {
		for _, ctl := range row {
			out = append(out, ctl.ActionID)
		}
	}
	return out
}

func TestAppWiringIsComplete(t *testing.T) {
	// NewApp runs router validation; a gap in workflow coverage fails here
	newFixture(t)
}

func TestUnregisteredUserIsBlocked(t *testing.T) {
	f := newFixture(t)

	resp := f.command(1, "/whoami")
	require.NotNil(t, resp)
	assert.Equal(t, msgNotRegistered, resp.Text)

	resp = f.callback(1, "menu:main", "")
	require.NotNil(t, resp)
	assert.Equal(t, msgNotRegistered, resp.Text)
}

func TestRegistrationFlow(t *testing.T) {
	f := newFixture(t)

	resp := f.command(1, "/start")
	require.NotNil(t, resp)
	assert.Equal(t, msgChooseRole, resp.Text)
	actions := controlActions(resp)
	assert.Contains(t, actions, actRegisterRole)
	assert.Contains(t, actions, actCancelRegistration)

	resp = f.callback(1, actRegisterRole, string(access.RoleDirector))
	require.NotNil(t, resp)
	assert.Contains(t, resp.Text, "Registered as")

	id, err := f.directory.FindByExternalID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, access.RoleDirector, id.Role)

	// a second registration attempt is rejected
	resp = f.callback(1, actRegisterRole, string(access.RoleManager))
	require.NotNil(t, resp)
	assert.Equal(t, msgAlreadyRegistered, resp.Text)
	assert.True(t, resp.Notice)
}

func TestRegistrationRejectsUnknownRole(t *testing.T) {
	f := newFixture(t)

	resp := f.callback(1, actRegisterRole, "emperor")
	require.NotNil(t, resp)
	assert.Contains(t, resp.Text, "Unknown role")
}

func TestWhoamiShowsCapabilities(t *testing.T) {
	f := newFixture(t)
	f.seedDirector(1)

	resp := f.command(1, "/whoami")
	require.NotNil(t, resp)
	assert.Contains(t, resp.Text, "Director")
	assert.Contains(t, resp.Text, "assign roles")
}

func TestMainMenuIsCapabilityGated(t *testing.T) {
	f := newFixture(t)
	f.seedDirector(1)
	f.seedAdmin(2)

	resp := f.command(1, "/start")
	require.NotNil(t, resp)
	actions := controlActions(resp)
	assert.Contains(t, actions, "menu:companies")
	assert.Contains(t, actions, "menu:roles")
	assert.NotContains(t, actions, "menu:mytasks")

	resp = f.command(2, "/start")
	require.NotNil(t, resp)
	actions = controlActions(resp)
	assert.NotContains(t, actions, "menu:companies")
	assert.Contains(t, actions, "menu:mytasks")
}

func TestMenuSectionUnauthorized(t *testing.T) {
	f := newFixture(t)
	f.seedAdmin(2)

	resp := f.callback(2, "menu:companies", "")
	require.NotNil(t, resp)
	assert.True(t, resp.Notice)
	assert.Equal(t, dispatch.DefaultMessages().Unauthorized, resp.Text)
}

func TestCompanyCreationFlow(t *testing.T) {
	f := newFixture(t)
	f.seedDirector(1)
	ctx := context.Background()

	resp := f.callback(1, actCompanyCreate, "")
	require.NotNil(t, resp)
	assert.Equal(t, msgCompanyNamePrompt, resp.Text)

	// invalid name keeps the state and re-prompts
	resp = f.text(1, "A<b")
	require.NotNil(t, resp)
	assert.Equal(t, msgCompanyNameBad, resp.Text)

	resp = f.text(1, "Acme")
	require.NotNil(t, resp)
	assert.Equal(t, msgCompanyDescPrompt, resp.Text)

	resp = f.text(1, "-")
	require.NotNil(t, resp)
	assert.Contains(t, resp.Text, "Acme")
	assert.Contains(t, controlActions(resp), actConfirmCompanyCreation)

	resp = f.callback(1, actConfirmCompanyCreation, "")
	require.NotNil(t, resp)
	assert.Contains(t, resp.Text, msgCompanyCreated)

	list, err := f.companies.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Acme", list[0].Name)

	// workflow completed: free text falls back now
	resp = f.text(1, "anything")
	require.NotNil(t, resp)
	assert.Equal(t, msgUnknownCommand, resp.Text)
}

func TestCompanyCreationRejectsLongDescription(t *testing.T) {
	f := newFixture(t)
	f.seedDirector(1)

	f.callback(1, actCompanyCreate, "")
	f.text(1, "Acme")

	resp := f.text(1, strings.Repeat("x", 501))
	require.NotNil(t, resp)
	assert.Equal(t, msgCompanyDescBad, resp.Text)

	resp = f.text(1, "makes tools")
	require.NotNil(t, resp)
	assert.Contains(t, resp.Text, "makes tools")
}

func TestCompanyCreationDuplicateNameReturnsToNameStep(t *testing.T) {
	f := newFixture(t)
	f.seedDirector(1)
	ctx := context.Background()

	_, err := f.companies.Create(ctx, "Acme", "", 1)
	require.NoError(t, err)

	f.callback(1, actCompanyCreate, "")
	f.text(1, "ACME")
	f.text(1, "-")

	resp := f.callback(1, actConfirmCompanyCreation, "")
	require.NotNil(t, resp)
	assert.Contains(t, resp.Text, msgCompanyDuplicate)

	// the workflow is back at the name step and accepts a new name
	resp = f.text(1, "Globex")
	require.NotNil(t, resp)
	assert.Equal(t, msgCompanyDescPrompt, resp.Text)
}

func TestCancelClearsWorkflowFromAnyState(t *testing.T) {
	f := newFixture(t)
	f.seedDirector(1)

	f.callback(1, actCompanyCreate, "")
	f.text(1, "Acme")

	resp := f.callback(1, actCancel, "")
	require.NotNil(t, resp)
	assert.Equal(t, msgCancelled, resp.Text)

	// nothing in progress anymore
	resp = f.text(1, "loose text")
	require.NotNil(t, resp)
	assert.Equal(t, msgUnknownCommand, resp.Text)
}

func TestCancelCommand(t *testing.T) {
	f := newFixture(t)
	f.seedDirector(1)

	resp := f.command(1, "/cancel")
	require.NotNil(t, resp)
	assert.Equal(t, msgNothingToCancel, resp.Text)

	f.callback(1, actCompanyCreate, "")
	resp = f.command(1, "/cancel")
	require.NotNil(t, resp)
	assert.Equal(t, msgCancelled, resp.Text)
}

func TestCompanyListPagination(t *testing.T) {
	f := newFixture(t)
	f.seedDirector(1)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := f.companies.Create(ctx, fmt.Sprintf("Company %02d", i), "", 1)
		require.NoError(t, err)
	}

	resp := f.callback(1, actCompanyList, "")
	require.NotNil(t, resp)
	assert.Contains(t, resp.Text, "page 1 of 2")
	// 8 company rows, one nav row, one menu row
	require.Len(t, resp.Controls, 10)
	assert.Contains(t, controlActions(resp), actCompaniesPage)

	resp = f.callback(1, actCompaniesPage, "1")
	require.NotNil(t, resp)
	assert.Contains(t, resp.Text, "page 2 of 2")
	require.Len(t, resp.Controls, 6) // 4 companies + nav + menu

	// out-of-range pages are clamped, not failed
	resp = f.callback(1, actCompaniesPage, "99")
	require.NotNil(t, resp)
	assert.Contains(t, resp.Text, "page 2 of 2")

	resp = f.callback(1, actCompaniesPage, "garbage")
	require.NotNil(t, resp)
	assert.Contains(t, resp.Text, "page 1 of 2")
}

func TestCompanyListEmpty(t *testing.T) {
	f := newFixture(t)
	f.seedDirector(1)

	resp := f.callback(1, actCompanyList, "")
	require.NotNil(t, resp)
	assert.Equal(t, msgNoCompanies, resp.Text)
}

func TestCompanyDetails(t *testing.T) {
	f := newFixture(t)
	f.seedDirector(1)
	ctx := context.Background()

	c, err := f.companies.Create(ctx, "Acme", "makes tools", 1)
	require.NoError(t, err)

	resp := f.callback(1, actCompanyDetails, fmt.Sprintf("%d", c.ID))
	require.NotNil(t, resp)
	assert.Contains(t, resp.Text, "Acme")
	assert.Contains(t, resp.Text, "makes tools")
	assert.Contains(t, resp.Text, "Created by")

	resp = f.callback(1, actCompanyDetails, "404")
	require.NotNil(t, resp)
	assert.True(t, resp.Notice)
	assert.Equal(t, "Company not found.", resp.Text)
}

func TestCompanyDeactivate(t *testing.T) {
	f := newFixture(t)
	f.seedDirector(1)
	ctx := context.Background()

	c, err := f.companies.Create(ctx, "Acme", "", 1)
	require.NoError(t, err)

	resp := f.callback(1, actCompanyDeactivate, fmt.Sprintf("%d", c.ID))
	require.NotNil(t, resp)
	assert.Contains(t, resp.Text, "removed")

	list, err := f.companies.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	resp = f.callback(1, actCompanyDeactivate, "404")
	require.NotNil(t, resp)
	assert.True(t, resp.Notice)
	assert.Equal(t, "Company not found.", resp.Text)
}

func TestCompanyCreateUnauthorized(t *testing.T) {
	f := newFixture(t)
	f.seedAdmin(2)

	resp := f.callback(2, actCompanyCreate, "")
	require.NotNil(t, resp)
	assert.True(t, resp.Notice)
	assert.Equal(t, dispatch.DefaultMessages().Unauthorized, resp.Text)
}

func TestRoleAssignmentFlow(t *testing.T) {
	f := newFixture(t)
	f.seedDirector(1)
	f.seedAdmin(2)
	ctx := context.Background()

	resp := f.callback(1, actRolesAssign, "")
	require.NotNil(t, resp)
	assert.Equal(t, msgPickUser, strings.Split(resp.Text, "\n")[0])
	assert.Contains(t, controlActions(resp), actAssignUser)

	resp = f.callback(1, actAssignUser, "2")
	require.NotNil(t, resp)
	assert.Contains(t, resp.Text, msgPickRole)

	resp = f.callback(1, actAssignRole, string(access.RoleSysadmin))
	require.NotNil(t, resp)
	assert.Contains(t, controlActions(resp), actConfirmRoleAssignment)

	resp = f.callback(1, actConfirmRoleAssignment, "")
	require.NotNil(t, resp)
	assert.Contains(t, resp.Text, msgRoleAssigned)

	target, err := f.directory.FindByExternalID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, access.RoleSysadmin, target.Role)
}

func TestRoleAssignmentRequiresDirector(t *testing.T) {
	f := newFixture(t)
	f.seedAdmin(2)

	resp := f.callback(2, actRolesAssign, "")
	require.NotNil(t, resp)
	assert.True(t, resp.Notice)
	assert.Equal(t, dispatch.DefaultMessages().Unauthorized, resp.Text)
}

func TestRoleAssignmentStaleCallback(t *testing.T) {
	f := newFixture(t)
	f.seedDirector(1)

	// confirm without ever starting the flow
	resp := f.callback(1, actConfirmRoleAssignment, "")
	require.NotNil(t, resp)
	assert.True(t, resp.Notice)
	assert.Equal(t, msgStale, resp.Text)
}

func TestStartingNewWorkflowReplacesOldOne(t *testing.T) {
	f := newFixture(t)
	f.seedDirector(1)
	f.seedAdmin(2)

	f.callback(1, actCompanyCreate, "")
	f.text(1, "Acme")

	// beginning role assignment abandons the half-done company draft
	resp := f.callback(1, actRolesAssign, "")
	require.NotNil(t, resp)

	resp = f.callback(1, actAssignUser, "2")
	require.NotNil(t, resp)
	assert.Contains(t, resp.Text, msgPickRole)
}
