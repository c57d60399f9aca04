package shared

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)

// RejectionReason classifies why an asynchronous operation request was not applied
type RejectionReason string

const (
	RejectionReasonValidation          RejectionReason = "VALIDATION_FAILED"
	RejectionReasonAccountNotFound     RejectionReason = "ACCOUNT_NOT_FOUND"
	RejectionReasonInsufficientFunds   RejectionReason = "INSUFFICIENT_FUNDS"
	RejectionReasonCreditLimitExceeded RejectionReason = "CREDIT_LIMIT_EXCEEDED"
	RejectionReasonConflict            RejectionReason = "CONFLICT"
	RejectionReasonUnknown             RejectionReason = "UNKNOWN_ERROR"
)
