package entities

import "time"

// PushSubscription is a web push subscription registered with the remote
// service. The endpoint is unique per subscription; the keys are the
// client-generated P-256 public key and auth secret, base64url-encoded.
type PushSubscription struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Endpoint  string    `gorm:"size:2048;uniqueIndex;not null" json:"endpoint"`
	P256dh    string    `gorm:"size:255;not null" json:"p256dh"`
	Auth      string    `gorm:"size:64;not null" json:"auth"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName returns the table name for GORM.
func (PushSubscription) TableName() string {
	return "push_subscriptions"
}
