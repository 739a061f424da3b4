package constants

const (
	MAX_REFERENCE_LENGTH = 2048
	MAX_CONTENT_LENGTH   = 4096
	MAX_REASON_LENGTH    = 1000
	MAX_ID_LENGTH        = 128

	REVIEW_ACTION_APPROVE = "approve"
	REVIEW_ACTION_REJECT  = "reject"
)
