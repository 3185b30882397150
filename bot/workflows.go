package bot

import "github.com/m3rciful/taskbot/core/dispatch/session"

// Workflow and state names shared between declarations, handlers, and
// transport routing.
const (
	wfCompanyCreation = "company_creation"
	wfRoleAssignment  = "role_assignment"
)

const (
	stWaitingForName        session.State = "waiting_for_name"
	stWaitingForDescription session.State = "waiting_for_description"
	stConfirmingCreation    session.State = "confirming_creation"

	stSelectingUser        session.State = "selecting_user"
	stSelectingRole        session.State = "selecting_role"
	stConfirmingAssignment session.State = "confirming_assignment"
)

// Callback action ids. Dynamic arguments travel in the payload, never in
// the action id itself.
const (
	actRegisterRole       = "register_role"
	actCancelRegistration = "cancel_registration"

	actMenuPrefix = "menu:"
	actMenuMain   = "menu:main"

	actCompanyCreate     = "company:create"
	actCompanyList       = "company:list"
	actCompanyDetails    = "company:details"
	actCompanyDeactivate = "company:deactivate"
	actCompaniesPage     = "page:companies"

	actConfirmCompanyCreation = "confirm_company_creation"
	actCancel                 = "cancel"

	actAssignUser            = "assign_user"
	actAssignRole            = "assign_role"
	actConfirmRoleAssignment = "confirm_role_assignment"
	actRolesAssign           = "roles:assign"
)

// companyCreationWorkflow declares the three-step company creation
// conversation: name, optional description, confirmation.
func companyCreationWorkflow() *session.Workflow {
	return &session.Workflow{
		Name:    wfCompanyCreation,
		Initial: stWaitingForName,
		States: map[session.State]session.StateSpec{
			stWaitingForName: {
				AcceptsText: true,
				Actions:     []string{actCancel},
				Next:        []session.State{stWaitingForDescription},
			},
			stWaitingForDescription: {
				AcceptsText: true,
				Actions:     []string{actCancel},
				Next:        []session.State{stConfirmingCreation},
			},
			// Confirmation can bounce back to the name step when the
			// chosen name turns out to be taken.
			stConfirmingCreation: {
				Actions: []string{actConfirmCompanyCreation, actCancel},
				Next:    []session.State{stWaitingForName},
			},
		},
	}
}

// roleAssignmentWorkflow declares the director-only role change flow:
// pick a user, pick a role, confirm.
func roleAssignmentWorkflow() *session.Workflow {
	return &session.Workflow{
		Name:    wfRoleAssignment,
		Initial: stSelectingUser,
		States: map[session.State]session.StateSpec{
			stSelectingUser: {
				Actions: []string{actAssignUser, actCancel},
				Next:    []session.State{stSelectingRole},
			},
			stSelectingRole: {
				Actions: []string{actAssignRole, actCancel},
				Next:    []session.State{stConfirmingAssignment},
			},
			stConfirmingAssignment: {
				Actions: []string{actConfirmRoleAssignment, actCancel},
			},
		},
	}
}
