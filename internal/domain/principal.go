package domain

// ProfileRole is the application-level role carried by a profile.
type ProfileRole string

const (
	RoleAttendee  ProfileRole = "attendee"
	RoleOrganizer ProfileRole = "organizer"
)

// Principal identifies the authenticated subject an operation runs on behalf
// of. The zero value is the anonymous principal. It is threaded explicitly
// through every authorization and role-resolution call; nothing reads it from
// ambient context.
type Principal struct {
	ID   string
	Role ProfileRole
}

// Anonymous returns the unauthenticated principal.
func Anonymous() Principal {
	return Principal{}
}

// IsAnonymous reports whether p carries no authenticated identity.
func (p Principal) IsAnonymous() bool {
	return p.ID == ""
}

// Is reports whether p is the authenticated subject with the given id.
// Always false for the anonymous principal.
func (p Principal) Is(id string) bool {
	return p.ID != "" && p.ID == id
}
