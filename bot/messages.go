package bot

// User-facing texts. Kept in one place so wording changes do not touch
// handler logic.
const (
	msgNotRegistered = "You are not registered yet. Send /start to pick a role and get going."

	msgChooseRole            = "Welcome! Choose your role to finish registration:"
	msgAlreadyRegistered     = "You are already registered."
	msgRegistrationCancelled = "Registration cancelled. Send /start whenever you are ready."

	msgCompanyNamePrompt = "Enter the company name (2–100 characters, no < > \" ' & symbols):"
	msgCompanyNameBad    = "That name will not work: use 2–100 characters without < > \" ' & symbols. Try again:"
	msgCompanyDescPrompt = "Now enter a description (up to 500 characters), or send \"-\" to skip:"
	msgCompanyDescBad    = "Description is too long, keep it under 500 characters. Try again:"
	msgCompanyDuplicate  = "A company with that name already exists."
	msgCompanyCreated    = "Company created."

	msgNoCompanies = "No companies yet."

	msgCancelled = "Cancelled."
	msgStale     = "This action is no longer available."

	msgPickUser        = "Pick the user whose role should change:"
	msgPickRole        = "Pick the new role:"
	msgRoleAssigned    = "Role updated."
	msgUserGone        = "That user is no longer available."
	msgNothingToCancel = "Nothing to cancel."

	msgUnknownCommand  = "I do not know that command. Send /help to see what I can do."
	msgUnknownCallback = "That button is no longer active."
	msgSystemError     = "Something went wrong while processing your request. Please try again."
)
