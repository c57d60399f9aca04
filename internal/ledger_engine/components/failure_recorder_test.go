package components

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/mindful-finance-ledger/internal/domain/journal"
	"github.com/mindful-finance-ledger/internal/domain/shared"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
	"github.com/mindful-finance-ledger/internal/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFailureRecorder_RecordRejection(t *testing.T) {
	ctx := context.Background()
	req, err := transaction.NewOperationRequest("user-1", transaction.Operation{
		Kind:        transaction.KindExpense,
		AccountID:   uuid.New(),
		Amount:      decimal.NewFromInt(25),
		Description: "shoes",
	}, "corr-1")
	require.NoError(t, err)

	isRejection := mock.MatchedBy(func(e *journal.Entry) bool {
		return e.EventType == journal.EventOperationRejected &&
			e.Reason == shared.RejectionReasonInsufficientFunds &&
			e.RequestID == req.RequestID.String()
	})

	tests := []struct {
		name      string
		createErr error
		wantErr   bool
	}{
		{name: "journals rejection"},
		{name: "redelivered request", createErr: journal.ErrDuplicateEntry{EventID: "rejected-" + req.RequestID.String()}},
		{name: "journal unavailable", createErr: errors.New("no reachable servers"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mocks.JournalRepository{}
			repo.On("Create", ctx, isRejection).Return(tt.createErr)
			recorder := NewFailureRecorder(repo, discardLogger())

			err := recorder.RecordRejection(ctx, req, shared.RejectionReasonInsufficientFunds, "insufficient funds")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}
