package models

import "time"

// RefreshToken represents a persisted refresh token session.
//
// A token starts active and can only transition to revoked; revocation is
// terminal. The revoked flag is never flipped back, and rotation (revoke the
// consumed token, insert its replacement) happens inside one database
// transaction so the old and new tokens are never simultaneously usable.
type RefreshToken struct {
	ID        string     `db:"id" json:"id"`
	UserID    int64      `db:"user_id" json:"userId"`
	Token     string     `db:"token" json:"token"`
	ExpiresAt time.Time  `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revokedAt,omitempty"`
}

// Usable reports whether the token may still be exchanged at the given time.
func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
