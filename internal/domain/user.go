package domain

import "time"

type User struct {
	UserID                   string    `json:"id" bson:"_id" dynamodbav:"user_id"`
	Email                    string    `json:"email" bson:"email" dynamodbav:"email"`
	HasVerifiedEmail         bool      `json:"hasVerifiedEmail" bson:"hasVerifiedEmail" dynamodbav:"has_verified_email"`
	Shortname                *string   `json:"shortname,omitempty" bson:"shortname,omitempty" dynamodbav:"shortname,omitempty"`
	PreferredName            *string   `json:"preferredName,omitempty" bson:"preferredName,omitempty" dynamodbav:"preferred_name,omitempty"`
	StripeCustomerID         *string   `json:"-" bson:"stripeCustomerId,omitempty" dynamodbav:"stripe_customer_id,omitempty"`
	StripeSubscriptionID     *string   `json:"-" bson:"stripeSubscriptionId,omitempty" dynamodbav:"stripe_subscription_id,omitempty"`
	StripeSubscriptionStatus *string   `json:"stripeSubscriptionStatus,omitempty" bson:"stripeSubscriptionStatus,omitempty" dynamodbav:"stripe_subscription_status,omitempty"`
	StripeSubscriptionTier   *string   `json:"stripeSubscriptionTier,omitempty" bson:"stripeSubscriptionTier,omitempty" dynamodbav:"stripe_subscription_tier,omitempty"`
	UsageLimitCents          *int      `json:"usageLimitCents,omitempty" bson:"usageLimitCents,omitempty" dynamodbav:"usage_limit_cents,omitempty"`
	WordpressInstanceURLs    []string  `json:"-" bson:"wordpressInstanceUrls,omitempty" dynamodbav:"wordpress_instance_urls,omitempty,stringset"`
	CreatedAt                time.Time `json:"createdAt" bson:"createdAt" dynamodbav:"created_at"`
	UpdatedAt                time.Time `json:"updatedAt" bson:"updatedAt" dynamodbav:"updated_at"`
}

// IsSignedUp reports whether the user has completed signup.
func (u *User) IsSignedUp() bool {
	return u.Shortname != nil && u.PreferredName != nil
}

// ShortnameOrEmpty returns the shortname, or "" before signup is complete.
func (u *User) ShortnameOrEmpty() string {
	if u.Shortname == nil {
		return ""
	}
	return *u.Shortname
}

// PublicUser is the profile shown to other users.
type PublicUser struct {
	Shortname     string `json:"shortname"`
	PreferredName string `json:"preferredName"`
}

// UserUpdate is a partial update; nil fields are left unchanged.
type UserUpdate struct {
	HasVerifiedEmail *bool
	Shortname        *string
	PreferredName    *string
}

type SignupRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type SendLoginCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type LinkWordpressRequest struct {
	Email                string `json:"email" validate:"required,email"`
	WordpressInstanceURL string `json:"wordpressInstanceUrl" validate:"required,url"`
}

// VerificationCodeRequest is the body shared by every "prove you own this
// email" endpoint.
type VerificationCodeRequest struct {
	UserID             string `json:"userId" validate:"required"`
	VerificationCodeID string `json:"verificationCodeId" validate:"required"`
	Code               string `json:"code" validate:"required"`
}

type CompleteSignupRequest struct {
	Shortname     string `json:"shortname" validate:"required"`
	PreferredName string `json:"preferredName" validate:"required"`
}

type UpdateUserRequest struct {
	Shortname     *string `json:"shortname"`
	PreferredName *string `json:"preferredName"`
}
