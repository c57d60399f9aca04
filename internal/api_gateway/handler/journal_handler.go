package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mindful-finance-ledger/internal/api_gateway/service"
	"github.com/mindful-finance-ledger/internal/domain/journal"
)

type JournalHandler struct {
	journalService service.JournalService
	logger         *slog.Logger
}

func NewJournalHandler(logger *slog.Logger, journalService service.JournalService) *JournalHandler {
	return &JournalHandler{
		journalService: journalService,
		logger:         logger,
	}
}

// List pages through the owner's audit journal, optionally filtered by ?event_type=
func (h *JournalHandler) List(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	eventType := journal.EventType(c.Query("event_type"))
	switch eventType {
	case "", journal.EventTransactionCommitted, journal.EventBalancesReconciled, journal.EventOperationRejected:
	default:
		RespondBadRequest(c, "Unknown event type")
		return
	}

	entries, total, err := h.journalService.ListEntries(c.Request.Context(), owner, eventType, pagination.Page, pagination.PerPage)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondWithPaginatedData(c, http.StatusOK, entries, pagination.Page, pagination.PerPage, int(total))
}

// Range lists entries recorded between ?from= and ?to= (whole days, to inclusive).
// Without from it starts at the beginning, without to it ends now.
func (h *JournalHandler) Range(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	from, err := parseOptionalDate("from", c.Query("from"))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	to, err := parseOptionalDate("to", c.Query("to"))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	start := time.Time{}
	if from != nil {
		start = *from
	}
	end := time.Now().UTC()
	if to != nil {
		end = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	entries, err := h.journalService.ListEntriesBetween(c.Request.Context(), owner, start, end, pagination.Page, pagination.PerPage)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondOK(c, entries)
}
