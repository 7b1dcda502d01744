package domain

// ActorKind tags who is acting on a ticket.
type ActorKind string

const (
	ActorKindSystem     ActorKind = "SYSTEM"
	ActorKindUser       ActorKind = "USER"
	ActorKindTechnician ActorKind = "TECHNICIAN"
)

// Actor identifies the caller for audit and history attribution. It is
// resolved once at the transport boundary; an absent caller is the System
// sentinel. Actors are never used for authorization decisions.
type Actor struct {
	Kind ActorKind
	ID   string
	Name string
}

// SystemActor returns the sentinel used when no caller identity exists.
func SystemActor() Actor {
	return Actor{Kind: ActorKindSystem}
}

// IsSystem reports whether this is the system sentinel.
func (a Actor) IsSystem() bool {
	return a.Kind == ActorKindSystem || (a.ID == "" && a.Name == "")
}

// Label renders the actor for history/audit rows.
func (a Actor) Label() string {
	if a.IsSystem() {
		return "System"
	}
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}
