// Package access holds every permission decision of the API in one place.
package access

import (
	"github.com/zudaR107/todo-app/internal/auth"
	"github.com/zudaR107/todo-app/internal/domain/user"
)

// CanManageProject reports whether id may read or change a project owned by
// ownerID, including the tasks under it.
func CanManageProject(id auth.Identity, ownerID string) bool {
	switch id.Role {
	case user.RoleSuperadmin:
		return true
	case user.RoleUser:
		return id.UserID != "" && id.UserID == ownerID
	default:
		return false
	}
}

// CanCreateUsers gates POST /users.
func CanCreateUsers(id auth.Identity) bool {
	switch id.Role {
	case user.RoleSuperadmin:
		return true
	case user.RoleUser:
		return false
	default:
		return false
	}
}

// CalendarScope is the set of projects a calendar query without an explicit
// project covers.
type CalendarScope int

const (
	// ScopeOwned covers the caller's own projects.
	ScopeOwned CalendarScope = iota
	// ScopeAll covers every project.
	ScopeAll
)

func DefaultCalendarScope(id auth.Identity) CalendarScope {
	switch id.Role {
	case user.RoleSuperadmin:
		return ScopeAll
	case user.RoleUser:
		return ScopeOwned
	default:
		return ScopeOwned
	}
}
