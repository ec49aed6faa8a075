package auth

import "github.com/zudaR107/todo-app/internal/domain/user"

// Identity is the authenticated caller attached to a request.
type Identity struct {
	UserID string
	Role   user.Role
}

func (i Identity) IsSuperadmin() bool {
	return i.Role == user.RoleSuperadmin
}
