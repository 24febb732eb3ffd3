package service

import "time"

// Session identifies the signed-in learner for one request. Operations that
// accept a *Session treat nil as "logged out".
type Session struct {
	UserID      string
	Email       string
	AccessToken string
	ExpiresAt   time.Time
}
