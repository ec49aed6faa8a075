package project

import (
	"errors"
	"strings"
	"time"
)

var ErrNotFound = errors.New("project not found")

type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateProjectRequest struct {
	Name  string  `json:"name" binding:"required,notblank,max=100"`
	Color *string `json:"color" binding:"omitnil,hexcolor3or6"`
}

// partial update, nil means "leave as is"
type UpdateProjectRequest struct {
	Name  *string `json:"name" binding:"omitnil,notblank,max=100"`
	Color *string `json:"color" binding:"omitnil,hexcolor3or6"`
}

func (r UpdateProjectRequest) IsEmpty() bool {
	return r.Name == nil && r.Color == nil
}

func (r *UpdateProjectRequest) Normalize() {
	if r.Name != nil {
		n := strings.TrimSpace(*r.Name)
		r.Name = &n
	}
	if r.Color != nil {
		c := strings.TrimSpace(*r.Color)
		r.Color = &c
	}
}

func NewFromCreateRequest(req CreateProjectRequest, ownerID string) Project {
	p := Project{
		Name:    strings.TrimSpace(req.Name),
		OwnerID: ownerID,
	}
	if req.Color != nil {
		p.Color = strings.TrimSpace(*req.Color)
	}
	return p
}

// Apply mutates p in place. Stores that cannot express a partial update natively use it.
func (p *Project) Apply(req UpdateProjectRequest, now time.Time) {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Color != nil {
		p.Color = *req.Color
	}
	p.UpdatedAt = now
}
