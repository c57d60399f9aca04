package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mindful-finance-ledger/internal/domain/outbox"
	"github.com/mindful-finance-ledger/internal/domain/shared"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var outboxColumnNames = []string{"id", "event_id", "owner_id", "payload", "status", "attempts", "created_at", "last_attempt_at"}

func TestOutboxRepository_Create(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: newTestLogger()}
	message := &outbox.Message{
		EventID:   "evt-1",
		OwnerID:   "user-1",
		Payload:   []byte(`{"event_type":"TRANSACTION_COMMITTED"}`),
		Status:    shared.OutboxStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	query := regexp.QuoteMeta(`INSERT INTO transaction_outbox (event_id, owner_id, payload, status, attempts, created_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`)

	mock.ExpectQuery(query).
		WithArgs("evt-1", "user-1", message.Payload, shared.OutboxStatusPending, 0, message.CreatedAt).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(17)))
	require.NoError(t, repo.Create(ctx, message))
	assert.Equal(t, int64(17), message.ID)

	dbErr := errors.New("insert failed")
	mock.ExpectQuery(query).
		WithArgs("evt-1", "user-1", message.Payload, shared.OutboxStatusPending, 0, message.CreatedAt).
		WillReturnError(dbErr)
	err = repo.Create(ctx, message)
	assert.ErrorIs(t, err, dbErr)
	assert.Contains(t, err.Error(), "failed to create outbox message")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_GetPending(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: newTestLogger()}
	now := time.Now().UTC()
	query := regexp.QuoteMeta(`WHERE status = $1 ORDER BY created_at ASC, id ASC LIMIT $2`)

	rows := pgxmock.NewRows(outboxColumnNames).
		AddRow(int64(1), "evt-1", "user-1", []byte(`{}`), shared.OutboxStatusPending, 0, now, nil).
		AddRow(int64(2), "evt-2", "user-2", []byte(`{}`), shared.OutboxStatusPending, 2, now, &now)
	mock.ExpectQuery(query).WithArgs(shared.OutboxStatusPending, 10).WillReturnRows(rows)

	messages, err := repo.GetPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "evt-1", messages[0].EventID)
	assert.Nil(t, messages[0].LastAttemptAt)
	assert.Equal(t, 2, messages[1].Attempts)
	assert.NotNil(t, messages[1].LastAttemptAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: newTestLogger()}
	query := regexp.QuoteMeta(`SET status = $1, last_attempt_at = $2 WHERE id = $3`)

	mock.ExpectExec(query).WithArgs(shared.OutboxStatusProcessed, pgxmock.AnyArg(), int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	assert.NoError(t, repo.UpdateStatus(ctx, 5, shared.OutboxStatusProcessed))

	mock.ExpectExec(query).WithArgs(shared.OutboxStatusFailedToPublish, pgxmock.AnyArg(), int64(6)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, repo.UpdateStatus(ctx, 6, shared.OutboxStatusFailedToPublish), outbox.ErrMessageNotFound{})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_IncrementAttempts(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: newTestLogger()}
	mock.ExpectExec(regexp.QuoteMeta(`SET attempts = attempts + 1, last_attempt_at = $1 WHERE id = $2`)).
		WithArgs(pgxmock.AnyArg(), int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, repo.IncrementAttempts(ctx, 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_GetByEventID(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: newTestLogger()}
	query := regexp.QuoteMeta(`FROM transaction_outbox WHERE event_id = $1`)

	mock.ExpectQuery(query).WithArgs("evt-9").WillReturnError(pgx.ErrNoRows)
	_, err = repo.GetByEventID(ctx, "evt-9")
	assert.ErrorIs(t, err, outbox.ErrMessageNotFound{})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM transaction_outbox WHERE status = $1`)).
		WithArgs(shared.OutboxStatusPending).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(4)))
	count, err := repo.CountByStatus(ctx, shared.OutboxStatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_WithTx(t *testing.T) {
	repo := &OutboxRepository{querier: nil, logger: newTestLogger()}

	mockTx := pgx.Tx(nil)
	txRepo := repo.WithTx(mockTx)

	outboxRepo, ok := txRepo.(*OutboxRepository)
	require.True(t, ok)
	assert.Equal(t, mockTx, outboxRepo.querier)
	assert.Equal(t, repo.logger, outboxRepo.logger)
}
