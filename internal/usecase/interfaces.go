package usecase

import (
	"time"
)

type TokenIssuer interface {
	Issue(email string) (token string, expiresAt time.Time, err error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// Notifier pushes realtime events to a connected member.
type Notifier interface {
	Notify(memberID, messageType string, data interface{}) error
}

// ActionLimiter throttles a key (here the member email) per action.
type ActionLimiter interface {
	Allow(key, action string) (bool, time.Duration)
}
