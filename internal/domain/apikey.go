package domain

import "time"

// APIKeyPrefix is the first segment of every API key string.
const APIKeyPrefix = "b10ck5"

// APIKey is a long-lived bearer credential. The private part of the key is
// never stored; only an HMAC of it together with the salt.
type APIKey struct {
	KeyID          string     `json:"-" bson:"_id" dynamodbav:"key_id"`
	PublicID       string     `json:"publicId" bson:"publicId" dynamodbav:"public_id"`
	HashedString   string     `json:"-" bson:"hashedString" dynamodbav:"hashed_string"`
	Salt           string     `json:"-" bson:"salt" dynamodbav:"salt"`
	DisplayName    string     `json:"displayName" bson:"displayName" dynamodbav:"display_name"`
	UserID         string     `json:"-" bson:"userId" dynamodbav:"user_id"`
	UseCount       int64      `json:"useCount" bson:"useCount" dynamodbav:"use_count"`
	LastUsedAt     *time.Time `json:"lastUsedAt,omitempty" bson:"lastUsedAt,omitempty" dynamodbav:"last_used_at,omitempty"`
	LastUsedOrigin *string    `json:"lastUsedOrigin,omitempty" bson:"lastUsedOrigin,omitempty" dynamodbav:"last_used_origin,omitempty"`
	RevokedAt      *time.Time `json:"revokedAt,omitempty" bson:"revokedAt,omitempty" dynamodbav:"revoked_at,omitempty"`
	CreatedAt      time.Time  `json:"createdAt" bson:"createdAt" dynamodbav:"created_at"`
}

// IsRevoked reports whether the key was revoked at or before now.
func (k *APIKey) IsRevoked(now time.Time) bool {
	return k.RevokedAt != nil && !k.RevokedAt.After(now)
}

type GenerateAPIKeyRequest struct {
	DisplayName string `json:"displayName" validate:"required,max=100"`
}

type RevokeAPIKeyRequest struct {
	PublicID string `json:"publicId" validate:"required"`
}

type UpdateAPIKeyRequest struct {
	PublicID    string `json:"publicId" validate:"required"`
	DisplayName string `json:"displayName" validate:"required,max=100"`
}
