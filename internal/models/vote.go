package models

// Vote is an anonymous upvote. A browser session votes at most once per feature.
type Vote struct {
	BaseModel
	FeatureID string `gorm:"type:uuid;not null;uniqueIndex:idx_votes_feature_session" json:"featureId"`
	SessionID string `gorm:"not null;uniqueIndex:idx_votes_feature_session" json:"sessionId"`
}
