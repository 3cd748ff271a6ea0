package models

// User is a person who can sign in and be a member of roadmaps.
type User struct {
	SoftDeleteModel
	Name      string  `gorm:"not null" json:"name"`
	Username  string  `gorm:"uniqueIndex;not null" json:"username"`
	Email     string  `gorm:"uniqueIndex;not null" json:"email"`
	Phone     *string `json:"phone"`
	AvatarURL *string `gorm:"column:avatar_url" json:"avatarUrl"`

	InvitedByID *string `gorm:"type:uuid;index" json:"invitedById"`
	InvitedBy   *User   `gorm:"foreignKey:InvitedByID" json:"invitedBy,omitempty"`

	Roadmaps []Roadmap `gorm:"many2many:roadmap_users;" json:"roadmaps,omitempty"`
}
