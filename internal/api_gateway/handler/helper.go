package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mindful-finance-ledger/internal/api_gateway/middleware"
	"github.com/mindful-finance-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ownerID returns the authenticated owner or answers 401
func ownerID(c *gin.Context) (string, bool) {
	owner := middleware.GetOwnerID(c)
	if owner == "" {
		RespondUnauthorized(c, "")
		return "", false
	}
	return owner, true
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondBadRequest(c, "Invalid "+strings.ReplaceAll(name, "_", " "))
		return uuid.Nil, false
	}
	return id, true
}

func parseOptionalUUID(field, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, shared.NewValidationError(field, "must be a uuid")
	}
	return &id, nil
}

func parseOptionalDate(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, shared.NewValidationError(field, "must be a date formatted YYYY-MM-DD")
	}
	return &t, nil
}

func parseOptionalDecimal(field, raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, shared.NewValidationError(field, "must be a number")
	}
	return &d, nil
}
