package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEnable           = "enable"
	fieldRead             = "read"
	fieldUsedAt           = "used_at"
	fieldLastLoginAt      = "last_login_at"
	fieldLastActiveAt     = "last_active_at"
	fieldAccessToken      = "access_token"
	fieldRefreshToken     = "refresh_token"
	fieldRefreshExpiresAt = "refresh_expires_at"
)
