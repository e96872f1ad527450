package runtime

import (
	"context"
	"errors"

	"github.com/pithecene-io/sigbench/frame"
	"github.com/pithecene-io/sigbench/signature"
	"github.com/pithecene-io/sigbench/types"
)

// Process exit codes per outcome.
const (
	ExitCodeSuccess            = 0
	ExitCodeVerificationFailed = 1
	ExitCodeIncompleteTransfer = 2
	ExitCodeTransportError     = 3
)

// DetermineOutcome classifies a transfer from the error that ended its loop
// and, for receivers, the verification result.
//
// Mapping:
//   - incomplete frame error: incomplete_transfer
//   - any other error: transport_error
//   - verification not valid: verification_failed
//   - otherwise: success
func DetermineOutcome(err error, verification *signature.Result) types.TransferOutcome {
	if err != nil {
		switch {
		case frame.IsKind(err, frame.KindIncompleteTransfer):
			return types.TransferOutcome{Status: types.OutcomeIncompleteTransfer, Message: err.Error()}
		case errors.Is(err, context.Canceled):
			return types.TransferOutcome{Status: types.OutcomeTransportError, Message: "transfer cancelled: " + err.Error()}
		default:
			return types.TransferOutcome{Status: types.OutcomeTransportError, Message: err.Error()}
		}
	}

	if verification == nil {
		return types.TransferOutcome{Status: types.OutcomeSuccess, Message: "frame sent"}
	}
	switch verification.Status {
	case signature.StatusValid:
		return types.TransferOutcome{Status: types.OutcomeSuccess, Message: "signature verified"}
	case signature.StatusError:
		return types.TransferOutcome{Status: types.OutcomeVerificationFailed, Message: "verification error: " + verification.Detail}
	default:
		return types.TransferOutcome{Status: types.OutcomeVerificationFailed, Message: "signature invalid: " + verification.Detail}
	}
}

// ExitCode maps an outcome to the process exit code.
func ExitCode(status types.OutcomeStatus) int {
	switch status {
	case types.OutcomeSuccess:
		return ExitCodeSuccess
	case types.OutcomeVerificationFailed:
		return ExitCodeVerificationFailed
	case types.OutcomeIncompleteTransfer:
		return ExitCodeIncompleteTransfer
	default:
		return ExitCodeTransportError
	}
}

// WorstOutcome returns the most severe of the given statuses, ordered by exit code.
func WorstOutcome(statuses ...types.OutcomeStatus) types.OutcomeStatus {
	worst := types.OutcomeSuccess
	for _, s := range statuses {
		if ExitCode(s) > ExitCode(worst) {
			worst = s
		}
	}
	return worst
}
