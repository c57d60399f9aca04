package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mindful-finance-ledger/internal/api_gateway/middleware"
	"github.com/mindful-finance-ledger/internal/api_gateway/service"
	"github.com/mindful-finance-ledger/internal/domain/transaction"
)

// TransactionHandler handles HTTP requests for ledger operations
type TransactionHandler struct {
	transactionService service.TransactionService
	logger             *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, transactionService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             logger,
	}
}

// Create applies an expense, income or transfer and returns the committed transaction
func (h *TransactionHandler) Create(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	op, ok := h.bindOperation(c)
	if !ok {
		return
	}

	txn, err := h.transactionService.Apply(c.Request.Context(), owner, op)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapTransactionToResponse(txn))
}

// Submit queues the operation for the ledger processor. The request id doubles as
// the id of the transaction once it commits.
func (h *TransactionHandler) Submit(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	op, ok := h.bindOperation(c)
	if !ok {
		return
	}

	req, err := h.transactionService.Submit(c.Request.Context(), owner, op, middleware.GetCorrelationID(c))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondAccepted(c, gin.H{
		"request_id": req.RequestID.String(),
		"status":     "PENDING",
	})
}

// GetByID retrieves a transaction by its ID, returns 404 if not found
func (h *TransactionHandler) GetByID(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	txn, err := h.transactionService.GetTransaction(c.Request.Context(), owner, id)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondOK(c, mapTransactionToResponse(txn))
}

// List returns a page of the owner's transactions, newest first
func (h *TransactionHandler) List(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	var query TransactionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}
	filter, err := query.filter()
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	h.list(c, owner, filter)
}

// GetByAccountID lists the transactions touching one account on either side
func (h *TransactionHandler) GetByAccountID(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	h.list(c, owner, transaction.Filter{AccountID: &id})
}

func (h *TransactionHandler) list(c *gin.Context, owner string, filter transaction.Filter) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}
	filter.Limit = pagination.PerPage
	filter.Offset = pagination.Offset()

	txns, total, err := h.transactionService.ListTransactions(c.Request.Context(), owner, filter)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondWithPaginatedData(c, http.StatusOK, mapTransactionsToResponse(txns), pagination.Page, pagination.PerPage, int(total))
}

func (h *TransactionHandler) bindOperation(c *gin.Context) (transaction.Operation, bool) {
	var req OperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return transaction.Operation{}, false
	}

	op, err := req.operation()
	if err != nil {
		RespondError(c, h.logger, err)
		return transaction.Operation{}, false
	}
	return op, true
}

func (r OperationRequest) operation() (transaction.Operation, error) {
	op := transaction.Operation{
		Kind:        transaction.Kind(r.Kind),
		Amount:      r.Amount,
		Description: r.Description,
		CategoryID:  r.CategoryID,
		Emotion:     transaction.Emotion(strings.ToLower(r.Emotion)),
	}

	// binding already checked the uuid format
	op.AccountID = uuid.MustParse(r.AccountID)
	if r.RequestID != "" {
		op.RequestID = uuid.MustParse(r.RequestID)
	}
	target, err := parseOptionalUUID("target_account_id", r.TargetAccountID)
	if err != nil {
		return op, err
	}
	op.TargetAccountID = target

	occurredOn, err := parseOptionalDate("occurred_on", r.OccurredOn)
	if err != nil {
		return op, err
	}
	if occurredOn != nil {
		op.OccurredOn = *occurredOn
	}
	return op, op.Validate()
}

func (q TransactionQuery) filter() (transaction.Filter, error) {
	filter := transaction.Filter{
		CategoryID: q.CategoryID,
		Kind:       transaction.Kind(q.Kind),
		Emotion:    transaction.Emotion(q.Emotion),
	}

	var err error
	if filter.AccountID, err = parseOptionalUUID("account_id", q.AccountID); err != nil {
		return filter, err
	}
	if filter.From, err = parseOptionalDate("from", q.From); err != nil {
		return filter, err
	}
	if filter.To, err = parseOptionalDate("to", q.To); err != nil {
		return filter, err
	}
	return filter, filter.Validate()
}
