package ledger_test

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"

	ledger "github.com/votebridge/VoteBridge/internal/ledger"
)

func TestErrorKindClassification(t *testing.T) {
	err := ledger.NewError(ledger.Timeout, "vote", fmt.Errorf("no receipt"))

	if !ledger.IsTimeout(err) {
		t.Fatalf("expected timeout classification")
	}

	if ledger.IsRejected(err) {
		t.Fatalf("timeout should not classify as rejected")
	}
}

func TestAlreadyVotedClassification(t *testing.T) {
	err := ledger.NewError(ledger.AlreadyVoted, "CastVote", fmt.Errorf("voter has already voted"))

	if !ledger.IsAlreadyVoted(err) {
		t.Fatalf("expected already voted classification")
	}

	if ledger.IsRejected(err) {
		t.Fatalf("already voted is its own kind, not a generic rejection")
	}
}

func TestErrorClassificationSurvivesWrapping(t *testing.T) {
	err := ledger.NewError(ledger.Rejected, "vote", fmt.Errorf("execution reverted"))
	wrapped := errors.Wrap(err, "casting ballot")

	if !ledger.IsRejected(wrapped) {
		t.Fatalf("wrapped error lost its classification")
	}
}

func TestExistingNativeID(t *testing.T) {
	err := ledger.NewAlreadyExists("CreateElection", 7)

	nativeId, ok := ledger.ExistingNativeID(err)
	if !ok {
		t.Fatalf("expected native id on already exists error")
	}

	if nativeId != 7 {
		t.Fatalf("expected native id 7, got %d", nativeId)
	}

	if _, ok := ledger.ExistingNativeID(fmt.Errorf("plain error")); ok {
		t.Fatalf("plain error should not carry a native id")
	}

	if _, ok := ledger.ExistingNativeID(ledger.NewError(ledger.NotFound, "GetResults", nil)); ok {
		t.Fatalf("not found error should not carry a native id")
	}
}

func TestErrorMessageIncludesOperation(t *testing.T) {
	err := ledger.NewError(ledger.Unavailable, "deploy", fmt.Errorf("connection refused"))

	message := err.Error()
	if message != "ledger: deploy unavailable: connection refused" {
		t.Fatalf("unexpected error message: %s", message)
	}
}
