package dynamo

// DynamoDB attribute names used in key and update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldUserID           = "user_id"
	fieldSessionID        = "session_id"
	fieldCodeID           = "code_id"
	fieldKeyID            = "key_id"
	fieldEmail            = "email"
	fieldShortname        = "shortname"
	fieldPreferredName    = "preferred_name"
	fieldHasVerifiedEmail = "has_verified_email"
	fieldWordpressURLs    = "wordpress_instance_urls"
	fieldEnable           = "enable"
	fieldUpdatedAt        = "updated_at"
	fieldVariant          = "variant"
	fieldCreatedAt        = "created_at"
	fieldAttempts         = "number_of_attempts"
	fieldUsed             = "used"
	fieldPruneAt          = "prune_at"
	fieldExpiresAt        = "expires_at"
	fieldPublicID         = "public_id"
	fieldDisplayName      = "display_name"
	fieldUseCount         = "use_count"
	fieldLastUsedAt       = "last_used_at"
	fieldLastUsedOrigin   = "last_used_origin"
	fieldRevokedAt        = "revoked_at"
	fieldBaseURL          = "base_url"
	fieldVersion          = "version"
)
