package domain

import "time"

// UserMapLike records that a user liked a map. At most one row exists per pair.
type UserMapLike struct {
	UserID    int64     `gorm:"primaryKey;column:user_id;autoIncrement:false" json:"user_id"`
	MapID     int64     `gorm:"primaryKey;column:map_id;autoIncrement:false;index" json:"map_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	// Relationships
	Map *Map `gorm:"foreignKey:MapID" json:"-"`
}

// TableName returns the table name for GORM
func (UserMapLike) TableName() string {
	return "user_map_likes"
}
