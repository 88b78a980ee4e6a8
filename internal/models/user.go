package models

// User is a local mirror of an identity-provider subject, created lazily on
// the first authenticated request that matches no existing row.
type User struct {
	BaseModel

	ExternalID string `gorm:"uniqueIndex;not null" json:"external_id"`
	Email      string `gorm:"uniqueIndex;not null" json:"email"`
	Name       string `json:"name"`
	AvatarURL  string `json:"avatar_url"`

	Memberships []WorkspaceMember `gorm:"foreignKey:UserID" json:"-"`
}
