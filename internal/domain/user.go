package domain

import "time"

// User представляет пользователя сервиса.
type User struct {
	ID                     int64      `gorm:"primaryKey;column:id" json:"id"`
	Name                   string     `gorm:"column:name;size:64;uniqueIndex;not null" json:"name"`
	Email                  string     `gorm:"column:email;size:254;uniqueIndex;not null" json:"email"`
	PasswordHash           string     `gorm:"column:password_hash;not null" json:"-"`
	ProfilePicture         *string    `gorm:"column:profile_picture" json:"profile_picture,omitempty"`
	CreatedDate            string     `gorm:"column:created_date;size:10" json:"created_date"`
	IsVerified             bool       `gorm:"column:is_verified;not null;default:false" json:"is_verified"`
	VerificationToken      *string    `gorm:"column:verification_token;index" json:"-"`
	VerificationExpiresAt  *time.Time `gorm:"column:verification_expires_at" json:"-"`
	LastVerificationSentAt *time.Time `gorm:"column:last_verification_sent_at" json:"-"`
	ResetPasswordToken     *string    `gorm:"column:reset_password_token;index" json:"-"`
	ResetPasswordExpiresAt *time.Time `gorm:"column:reset_password_expires_at" json:"-"`
	CreatedAt              time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	// Relationships
	Maps      []Map         `gorm:"foreignKey:CreatorID" json:"maps,omitempty"`
	LikedMaps []UserMapLike `gorm:"foreignKey:UserID" json:"-"`
}

// TableName возвращает название таблицы для GORM
func (User) TableName() string {
	return "users"
}

// VerificationExpired reports whether the pending verification token can no longer be used.
func (u *User) VerificationExpired(now time.Time) bool {
	return u.VerificationExpiresAt == nil || now.After(*u.VerificationExpiresAt)
}

// ResetExpired reports whether the pending password reset token can no longer be used.
func (u *User) ResetExpired(now time.Time) bool {
	return u.ResetPasswordExpiresAt == nil || now.After(*u.ResetPasswordExpiresAt)
}
