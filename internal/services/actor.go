package services

import "github.com/mrlokans/audioshelf/internal/domainerr"

// Actor identifies who is calling a service operation. The presentation
// layer resolves it from the session and passes it explicitly.
type Actor struct {
	UserID   uint
	Username string
	Admin    bool
}

// Anonymous is the actor for unauthenticated callers.
var Anonymous = Actor{}

func (a Actor) Authenticated() bool {
	return a.UserID != 0
}

func (a Actor) requireUser() error {
	if !a.Authenticated() {
		return domainerr.Unauthorized("login required")
	}
	return nil
}

func (a Actor) requireAdmin() error {
	if !a.Admin {
		return domainerr.PermissionDenied("administrator access required")
	}
	return nil
}
