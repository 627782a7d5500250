package domain

import "time"

type Session struct {
	SessionID string    `json:"id" bson:"_id" dynamodbav:"session_id"`
	UserID    string    `json:"user_id" bson:"userId" dynamodbav:"user_id"`
	Enable    bool      `json:"enable" bson:"enable" dynamodbav:"enable"`
	UserAgent string    `json:"-" bson:"userAgent,omitempty" dynamodbav:"user_agent,omitempty"`
	IP        string    `json:"-" bson:"ip,omitempty" dynamodbav:"ip,omitempty"`
	ExpiresAt time.Time `json:"expires_at" bson:"expiresAt" dynamodbav:"expires_at,unixtime"`
	CreatedAt time.Time `json:"created" bson:"createdAt" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" bson:"updatedAt" dynamodbav:"updated_at"`
	User      *User     `json:"user,omitempty" bson:"-" dynamodbav:"-"`
}

// Active reports whether the session can still authenticate requests.
func (s *Session) Active(now time.Time) bool {
	return s.Enable && now.Before(s.ExpiresAt)
}

// SessionMeta describes the client a session is opened for.
type SessionMeta struct {
	UserAgent string
	IP        string
}
