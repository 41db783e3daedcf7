package credential

import "time"

// ApplicationPassword is a per-user secret used for programmatic API access.
// It is separate from any interactive login password and can be revoked on its own.
type ApplicationPassword struct {
	ID           int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Username     string     `gorm:"column:username;index;not null" json:"username"`
	Name         string     `gorm:"column:name" json:"name"`
	PasswordHash string     `gorm:"column:password_hash;not null" json:"-"`
	CreatedAt    time.Time  `gorm:"column:created_at" json:"created_at"`
	LastUsedAt   *time.Time `gorm:"column:last_used_at" json:"last_used_at,omitempty"`
	RevokedAt    *time.Time `gorm:"column:revoked_at" json:"revoked_at,omitempty"`
}

func (ApplicationPassword) TableName() string { return "application_passwords" }

func (p *ApplicationPassword) Active() bool { return p.RevokedAt == nil }
