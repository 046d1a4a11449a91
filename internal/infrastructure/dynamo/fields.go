package dynamo

// DynamoDB attribute names used in key, filter and update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEmail      = "email"
	fieldTempUserID = "temp_user_id"
	fieldOTPID      = "otp_id"
	fieldCode       = "code"
	fieldExpiresAt  = "expires_at"
	fieldVerified   = "verified"
	fieldVerifiedAt = "verified_at"
	fieldDocumentID = "document_id"
	fieldOwnerID    = "owner_id"
)
