// Package permission holds the role predicates that gate every operation.
// Each predicate is a pure function of the caller, the requested action and,
// where relevant, the owner of the target resource. A nil result means allowed.
package permission

import (
	"errors"

	"github.com/sefazor/events-backend/internal/models"
)

// ErrForbidden is returned by every predicate that denies access.
var ErrForbidden = errors.New("you do not have permission to perform this action")

type Action int

const (
	ActionRead Action = iota
	ActionList
	ActionCreate
	ActionUpdate
	ActionDelete
)

func (a Action) IsWrite() bool {
	return a == ActionCreate || a == ActionUpdate || a == ActionDelete
}

// Caller is the identity behind a request. The zero value is an anonymous caller.
type Caller struct {
	ID          uint
	Username    string
	Email       string
	IsModerator bool
}

func Anonymous() Caller {
	return Caller{}
}

func FromUser(u *models.User) Caller {
	if u == nil {
		return Anonymous()
	}
	return Caller{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		IsModerator: u.IsModerator,
	}
}

func (c Caller) IsAuthenticated() bool {
	return c.ID != 0
}

// IsParticipantRole reports an authenticated, non-moderator caller.
func (c Caller) IsParticipantRole() bool {
	return c.IsAuthenticated() && !c.IsModerator
}

// UserAccess gates the user resource. Creation is open to everyone. Listing
// needs a moderator. Acting on a single user needs a moderator, or the user
// themselves as long as the request does not touch the moderator flag.
func UserAccess(c Caller, action Action, targetID uint, touchesModeratorFlag bool) error {
	switch {
	case action == ActionCreate:
		return nil
	case !c.IsAuthenticated():
		return ErrForbidden
	case c.IsModerator:
		return nil
	case action == ActionList:
		return ErrForbidden
	case c.ID == targetID && !touchesModeratorFlag:
		return nil
	}
	return ErrForbidden
}

// EventAccess gates the event resource: reads are public, writes need a
// moderator. Anonymous writes are Forbidden, not Unauthorized.
func EventAccess(c Caller, action Action) error {
	if !action.IsWrite() {
		return nil
	}
	if c.IsAuthenticated() && c.IsModerator {
		return nil
	}
	return ErrForbidden
}

// Registration gates the registration toggle and the caller's own event list.
func Registration(c Caller) error {
	if c.IsParticipantRole() {
		return nil
	}
	return ErrForbidden
}

// ReviewAccess gates the review resource. Reads are public, creation is for
// non-moderators, and update/delete are reserved to the author with no
// moderator override. authorID is ignored for reads and creation.
func ReviewAccess(c Caller, action Action, authorID uint) error {
	switch {
	case !action.IsWrite():
		return nil
	case !c.IsAuthenticated():
		return ErrForbidden
	case action == ActionCreate:
		if c.IsModerator {
			return ErrForbidden
		}
		return nil
	case c.ID == authorID:
		return nil
	}
	return ErrForbidden
}
