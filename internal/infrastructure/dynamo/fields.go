package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldPendingCode   = "pending_code"
	fieldCodeExpiresAt = "code_expires_at"
	fieldVerified      = "verified"
	fieldUpdatedAt     = "updated_at"
)
