package models

import "gorm.io/datatypes"

// StatusColors overrides the badge colour per status in the public embed.
type StatusColors struct {
	Backlog    string `json:"BACKLOG,omitempty" validate:"omitempty,hexcolor"`
	NextUp     string `json:"NEXT_UP,omitempty" validate:"omitempty,hexcolor"`
	InProgress string `json:"IN_PROGRESS,omitempty" validate:"omitempty,hexcolor"`
	Done       string `json:"DONE,omitempty" validate:"omitempty,hexcolor"`
}

// For returns the override for status, or "" when none is set.
func (c *StatusColors) For(status Status) string {
	if c == nil {
		return ""
	}
	switch status {
	case StatusBacklog:
		return c.Backlog
	case StatusNextUp:
		return c.NextUp
	case StatusInProgress:
		return c.InProgress
	case StatusDone:
		return c.Done
	}
	return ""
}

// EmbedStyles customises how the public embed renders. Every field is optional.
type EmbedStyles struct {
	PrimaryColor    string        `json:"primaryColor,omitempty" validate:"omitempty,hexcolor"`
	BackgroundColor string        `json:"backgroundColor,omitempty" validate:"omitempty,hexcolor"`
	TextColor       string        `json:"textColor,omitempty" validate:"omitempty,hexcolor"`
	BorderColor     string        `json:"borderColor,omitempty" validate:"omitempty,hexcolor"`
	StatusColors    *StatusColors `json:"statusColors,omitempty"`
}

// Roadmap is a named collection of features. Its Users are its access list.
type Roadmap struct {
	SoftDeleteModel
	Name        string                          `gorm:"not null" json:"name"`
	IsPublic    bool                            `gorm:"not null;default:false" json:"isPublic"`
	EmbedStyles datatypes.JSONType[EmbedStyles] `json:"embedStyles"`

	Users    []User    `gorm:"many2many:roadmap_users;" json:"users"`
	Features []Feature `gorm:"foreignKey:RoadmapID" json:"features,omitempty"`
}

// HasMember reports whether userID is in the roadmap's access list.
func (r *Roadmap) HasMember(userID string) bool {
	if r == nil || userID == "" {
		return false
	}
	for _, u := range r.Users {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// MemberIDs returns the ids of the roadmap's users.
func (r *Roadmap) MemberIDs() []string {
	if r == nil {
		return nil
	}
	ids := make([]string, 0, len(r.Users))
	for _, u := range r.Users {
		ids = append(ids, u.ID)
	}
	return ids
}
