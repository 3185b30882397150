package dispatch

import (
	"log/slog"

	"github.com/m3rciful/taskbot/core/access"
	"github.com/m3rciful/taskbot/core/logger"
)

// EntryList names the interactions reachable without a resolved identity.
// Registration itself is completed via callback, so those actions must be
// listed alongside the entry commands.
type EntryList struct {
	Commands map[string]struct{}
	Actions  map[string]struct{}
}

// NewEntryList builds an allow-list from command names and callback
// action ids.
func NewEntryList(commands []string, actions []string) EntryList {
	el := EntryList{
		Commands: make(map[string]struct{}, len(commands)),
		Actions:  make(map[string]struct{}, len(actions)),
	}
	for _, c := range commands {
		el.Commands[c] = struct{}{}
	}
	for _, a := range actions {
		el.Actions[a] = struct{}{}
	}
	return el
}

func (el EntryList) allows(ev Event) bool {
	switch ev.Kind {
	case KindCommand:
		_, ok := el.Commands[ev.Command]
		return ok
	case KindCallback:
		_, ok := el.Actions[ev.Action]
		return ok
	}
	return false
}

// identityResolution looks up the sender in the directory and attaches
// the Identity to the context. Unregistered users terminate here unless
// the event is entry-listed.
type identityResolution struct {
	directory    Directory
	entry        EntryList
	unregistered string
}

// IdentityResolutionStage builds the canonical first stage.
// unregistered is the message shown to unknown users; it surfaces as an
// unauthenticated failure mapped by the router.
func IdentityResolutionStage(directory Directory, entry EntryList, unregistered string) Stage {
	return &identityResolution{
		directory:    directory,
		entry:        entry,
		unregistered: unregistered,
	}
}

func (s *identityResolution) Name() string { return "identity_resolution" }

func (s *identityResolution) Run(rc *Context, ev Event) (*Response, error) {
	id, err := s.directory.FindByExternalID(rc, ev.Profile.ExternalID)
	if err != nil {
		return nil, Infra("directory lookup", err)
	}

	if id == nil {
		if s.entry.allows(ev) {
			profile := ev.Profile
			rc.EntryProfile = &profile
			return nil, nil
		}
		return nil, Unauthenticated(s.unregistered)
	}

	rc.Identity = id
	s.syncProfile(rc, ev.Profile, id)
	return nil, nil
}

// syncProfile pushes changed transport profile data to the directory.
// Best effort: failures are logged and never affect dispatch.
func (s *identityResolution) syncProfile(rc *Context, p Profile, id *Identity) {
	var fields IdentityUpdate
	if p.Username != id.Username {
		fields.Username = &p.Username
	}
	if p.FirstName != id.FirstName {
		fields.FirstName = &p.FirstName
	}
	if p.LastName != id.LastName {
		fields.LastName = &p.LastName
	}
	if fields.Empty() {
		return
	}
	if _, err := s.directory.Update(rc, id.ExternalID, fields); err != nil {
		logger.Warn(rc, "dispatch", "profile.sync_failed",
			slog.Int64("user_id", id.ExternalID),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.Debug(rc, "dispatch", "profile.synced",
		slog.Int64("user_id", id.ExternalID),
	)
}

// PermissionEnrichmentStage computes the capability set from the resolved
// role. It never terminates; without an identity the set stays empty.
func PermissionEnrichmentStage() Stage {
	return StageFunc{
		StageName: "permission_enrichment",
		Fn: func(rc *Context, _ Event) (*Response, error) {
			if rc.Identity != nil {
				rc.Caps = access.Resolve(rc.Identity.Role)
			} else {
				rc.Caps = access.CapabilitySet{}
			}
			return nil, nil
		},
	}
}
