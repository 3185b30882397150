package bot

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/taskbot/core/access"
	corebootstrap "github.com/m3rciful/taskbot/core/bootstrap"
	"github.com/m3rciful/taskbot/core/dispatch"
	"github.com/m3rciful/taskbot/core/dispatch/session"
	"github.com/m3rciful/taskbot/services/company"
	"github.com/m3rciful/taskbot/services/identity"
)

// UserDirectory extends the dispatch directory with the admin operations
// the role assignment flow needs.
type UserDirectory interface {
	dispatch.Directory
	ListActive(ctx context.Context) ([]*dispatch.Identity, error)
	AssignRole(ctx context.Context, externalID int64, role access.Role) (bool, error)
}

// App wires the dispatch pipeline to the task-management services.
type App struct {
	cfg *Config
	db  *sqlx.DB

	directory UserDirectory
	companies *company.Service

	engine *session.Engine
	router *dispatch.Router
}

// Deps are the collaborators an App is built from. Tests inject in-memory
// implementations here.
type Deps struct {
	Directory UserDirectory
	Companies *company.Service
	Sessions  session.Store
}

// NewApp assembles the middleware chain, the workflow engine, and the
// router, then validates routing completeness. A validation error here is
// a wiring defect and must abort startup.
func NewApp(cfg *Config, deps Deps) (*App, error) {
	if deps.Directory == nil || deps.Companies == nil || deps.Sessions == nil {
		return nil, fmt.Errorf("bot: missing dependencies")
	}

	a := &App{
		cfg:       cfg,
		directory: deps.Directory,
		companies: deps.Companies,
		engine:    session.NewEngine(deps.Sessions),
	}

	for _, w := range []*session.Workflow{
		companyCreationWorkflow(),
		roleAssignmentWorkflow(),
	} {
		if err := a.engine.Register(w); err != nil {
			return nil, err
		}
	}

	entry := dispatch.NewEntryList(
		[]string{"/start", "/register"},
		[]string{actRegisterRole, actCancelRegistration},
	)
	chain := dispatch.NewChain(
		dispatch.IdentityResolutionStage(a.directory, entry, msgNotRegistered),
		dispatch.PermissionEnrichmentStage(),
	)

	a.router = dispatch.NewRouter(chain, a.engine, dispatch.DefaultMessages())
	if err := a.registerRoutes(); err != nil {
		return nil, err
	}
	if err := a.router.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) registerRoutes() error {
	r := a.router

	regs := []error{
		r.HandleCommand("/start", a.handleStart),
		r.HandleCommand("/register", a.handleStart),
		r.HandleCommand("/whoami", a.handleWhoami),
		r.HandleCommand("/help", a.handleHelp),
		r.HandleCommand("/cancel", a.handleCancelCommand),

		r.HandleCallback(actRegisterRole, a.handleRegisterRole),
		r.HandleCallback(actCancelRegistration, a.handleCancelRegistration),

		r.HandleCallbackPrefix(actMenuPrefix, a.handleMenu),

		r.HandleCallback(actCompanyCreate, a.handleCompanyCreate),
		r.HandleCallback(actCompanyList, a.handleCompanyList),
		r.HandleCallback(actCompanyDetails, a.handleCompanyDetails),
		r.HandleCallback(actCompanyDeactivate, a.handleCompanyDeactivate),
		r.HandleCallback(actCompaniesPage, a.handleCompaniesPage),
		r.HandleCallbackStep(actConfirmCompanyCreation, a.handleConfirmCompanyCreation),
		r.HandleCallbackStep(actCancel, a.handleCancel),

		r.HandleState(wfCompanyCreation, stWaitingForName, a.handleCompanyName),
		r.HandleState(wfCompanyCreation, stWaitingForDescription, a.handleCompanyDescription),

		r.HandleCallback(actRolesAssign, a.handleRolesAssignStart),
		r.HandleCallbackStep(actAssignUser, a.handleAssignUser),
		r.HandleCallbackStep(actAssignRole, a.handleAssignRole),
		r.HandleCallbackStep(actConfirmRoleAssignment, a.handleConfirmRoleAssignment),
	}
	for _, err := range regs {
		if err != nil {
			return err
		}
	}

	r.HandleFallback(a.handleUnknown)
	r.HandleSystemError(a.handleSystemError)
	return nil
}

// Dispatch runs one decoded event through the pipeline.
func (a *App) Dispatch(ctx context.Context, ev dispatch.Event) *dispatch.Response {
	return a.router.Dispatch(ctx, ev)
}

// Bootstrap initializes infrastructure from config and builds the App on
// Postgres-backed stores.
func Bootstrap(cfg *Config) (*App, error) {
	res, err := corebootstrap.Run(corebootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	app, err := NewApp(cfg, Deps{
		Directory: identity.NewService(res.DB),
		Companies: company.NewService(company.NewPostgresRepository(res.DB)),
		Sessions:  session.NewPostgresStore(res.DB),
	})
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}
	app.db = res.DB
	return app, nil
}

// Close releases infrastructure owned by the App.
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
