package models

import "time"

// ProjectMember is one row of a project's member set. The composite primary
// key keeps the set free of duplicates at the storage level.
type ProjectMember struct {
	ProjectID uint64    `gorm:"primarykey;autoIncrement:false" json:"project_id"`
	UserID    uint64    `gorm:"primarykey;autoIncrement:false;index" json:"user_id"`
	JoinedAt  time.Time `gorm:"autoCreateTime" json:"joined_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user"`
}
