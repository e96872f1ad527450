package runtime

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pithecene-io/sigbench/frame"
	"github.com/pithecene-io/sigbench/signature"
	"github.com/pithecene-io/sigbench/transport"
	"github.com/pithecene-io/sigbench/types"
)

func TestDetermineOutcome(t *testing.T) {
	valid := &signature.Result{Status: signature.StatusValid}
	invalid := &signature.Result{Status: signature.StatusInvalid, Detail: "mismatch"}
	noKey := &signature.Result{Status: signature.StatusError, Detail: "no key"}

	tests := []struct {
		name         string
		err          error
		verification *signature.Result
		want         types.OutcomeStatus
		wantMessage  string
	}{
		{"receiver success", nil, valid, types.OutcomeSuccess, "signature verified"},
		{"sender success", nil, nil, types.OutcomeSuccess, "frame sent"},
		{"invalid signature", nil, invalid, types.OutcomeVerificationFailed, "signature invalid: mismatch"},
		{"verification error", nil, noKey, types.OutcomeVerificationFailed, "verification error: no key"},
		{
			"incomplete frame",
			&frame.FrameError{Kind: frame.KindIncompleteTransfer, Msg: "short"},
			nil,
			types.OutcomeIncompleteTransfer,
			"incomplete_transfer: short",
		},
		{
			"wrapped incomplete frame",
			fmt.Errorf("receive: %w", &frame.FrameError{Kind: frame.KindIncompleteTransfer, Msg: "short"}),
			nil,
			types.OutcomeIncompleteTransfer,
			"receive: incomplete_transfer: short",
		},
		{
			"oversized signature",
			&frame.FrameError{Kind: frame.KindSignatureTooLarge, Msg: "too big"},
			nil,
			types.OutcomeTransportError,
			"signature_too_large: too big",
		},
		{
			"transport error",
			&transport.Error{Op: transport.OpRead, Err: errors.New("reset")},
			nil,
			types.OutcomeTransportError,
			"transport read: reset",
		},
		{
			"cancelled",
			&transport.Error{Op: transport.OpRead, Err: context.Canceled},
			nil,
			types.OutcomeTransportError,
			"transfer cancelled: transport read: context canceled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetermineOutcome(tt.err, tt.verification)
			if got.Status != tt.want {
				t.Errorf("Status = %q, want %q", got.Status, tt.want)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		status types.OutcomeStatus
		want   int
	}{
		{types.OutcomeSuccess, 0},
		{types.OutcomeVerificationFailed, 1},
		{types.OutcomeIncompleteTransfer, 2},
		{types.OutcomeTransportError, 3},
		{types.OutcomeStatus("unknown"), 3},
	}

	for _, tt := range tests {
		if got := ExitCode(tt.status); got != tt.want {
			t.Errorf("ExitCode(%q) = %d, want %d", tt.status, got, tt.want)
		}
	}
}

func TestWorstOutcome(t *testing.T) {
	if got := WorstOutcome(); got != types.OutcomeSuccess {
		t.Errorf("WorstOutcome() = %q, want success", got)
	}
	got := WorstOutcome(types.OutcomeSuccess, types.OutcomeIncompleteTransfer, types.OutcomeVerificationFailed)
	if got != types.OutcomeIncompleteTransfer {
		t.Errorf("WorstOutcome = %q, want %q", got, types.OutcomeIncompleteTransfer)
	}
}
