package domain

import "time"

// VerificationCodeVariant is the purpose a verification code was issued for.
type VerificationCodeVariant string

const (
	VerificationCodeLogin         VerificationCodeVariant = "login"
	VerificationCodeEmail         VerificationCodeVariant = "email"
	VerificationCodeLinkWordpress VerificationCodeVariant = "linkWordpress"
)

const (
	// VerificationCodeMaxAttempts is the number of failed comparisons after
	// which a code is dead.
	VerificationCodeMaxAttempts = 5
	// VerificationCodeMaxAge is how long a code can be used after creation.
	VerificationCodeMaxAge = time.Hour
	// VerificationCodePruneAge is when the store's TTL removes a code.
	VerificationCodePruneAge = 7 * 24 * time.Hour
)

// VerificationCode is a single-use emailed code. Mongo prunes it with a TTL
// index on createdAt; DynamoDB with the prune_at TTL attribute.
type VerificationCode struct {
	CodeID               string                  `json:"id" bson:"_id" dynamodbav:"code_id"`
	UserID               string                  `json:"userId" bson:"userId" dynamodbav:"user_id"`
	Variant              VerificationCodeVariant `json:"variant" bson:"variant" dynamodbav:"variant"`
	Code                 string                  `json:"-" bson:"code" dynamodbav:"code"`
	NumberOfAttempts     int                     `json:"numberOfAttempts" bson:"numberOfAttempts" dynamodbav:"number_of_attempts"`
	Used                 bool                    `json:"used" bson:"used" dynamodbav:"used"`
	WordpressInstanceURL *string                 `json:"wordpressInstanceUrl,omitempty" bson:"wordpressInstanceUrl,omitempty" dynamodbav:"wordpress_instance_url,omitempty"`
	CreatedAt            time.Time               `json:"createdAt" bson:"createdAt" dynamodbav:"created_at,unixtime"`
	PruneAt              time.Time               `json:"-" bson:"-" dynamodbav:"prune_at,unixtime"`
}

func (c *VerificationCode) HasBeenUsed() bool { return c.Used }

func (c *VerificationCode) HasExceededMaximumAttempts() bool {
	return c.NumberOfAttempts >= VerificationCodeMaxAttempts
}

func (c *VerificationCode) HasExpired(now time.Time) bool {
	return now.Sub(c.CreatedAt) > VerificationCodeMaxAge
}

// Validate returns the first reason the code can no longer be used, checked
// in the order used, attempts, age. A nil result means the code is active.
func (c *VerificationCode) Validate(now time.Time) error {
	switch {
	case c.HasBeenUsed():
		return NewError(ErrForbidden, CodeCodeUsed, "This verification code has already been used.")
	case c.HasExceededMaximumAttempts():
		return NewError(ErrForbidden, CodeTooManyAttempts, "You have exceeded the maximum number of attempts for this verification code.")
	case c.HasExpired(now):
		return NewError(ErrForbidden, CodeCodeExpired, "This verification code has expired, please request a new one.")
	}
	return nil
}

// VerificationCodeIssued is returned to the client after a code was emailed.
type VerificationCodeIssued struct {
	UserID             string `json:"userId"`
	VerificationCodeID string `json:"verificationCodeId"`
}
