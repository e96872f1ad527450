package types

// OutcomeStatus is the final classification of one transfer attempt.
type OutcomeStatus string

const (
	// OutcomeSuccess: the frame was reassembled and the signature verified.
	OutcomeSuccess OutcomeStatus = "success"
	// OutcomeVerificationFailed: the frame arrived but did not verify.
	OutcomeVerificationFailed OutcomeStatus = "verification_failed"
	// OutcomeIncompleteTransfer: the stream ended before the frame was complete.
	OutcomeIncompleteTransfer OutcomeStatus = "incomplete_transfer"
	// OutcomeTransportError: connect, read or write failed.
	OutcomeTransportError OutcomeStatus = "transport_error"
)

// TransferOutcome is the final outcome of a transfer.
type TransferOutcome struct {
	Status  OutcomeStatus `json:"status" msgpack:"status"`
	Message string        `json:"message" msgpack:"message"`
}
