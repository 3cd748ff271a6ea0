package models

// Feature is a single item on a roadmap's kanban board.
type Feature struct {
	SoftDeleteModel
	Title       string  `gorm:"not null" json:"title"`
	Description *string `json:"description"`
	Status      Status  `gorm:"type:varchar(32);not null;default:BACKLOG;index" json:"status"`

	RoadmapID string   `gorm:"type:uuid;not null;index" json:"roadmapId"`
	Roadmap   *Roadmap `gorm:"foreignKey:RoadmapID" json:"roadmap,omitempty"`

	Votes []Vote `gorm:"foreignKey:FeatureID" json:"votes"`
}
