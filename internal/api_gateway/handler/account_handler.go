package handler

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mindful-finance-ledger/internal/api_gateway/service"
	"github.com/mindful-finance-ledger/internal/domain/account"
)

// AccountHandler handles HTTP requests for the owner's accounts
type AccountHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// List returns the owner's accounts, ?include_inactive=true adds deactivated ones
func (h *AccountHandler) List(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	includeInactive := false
	if raw := c.Query("include_inactive"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			RespondBadRequest(c, "include_inactive must be a boolean")
			return
		}
		includeInactive = parsed
	}

	accounts, err := h.accountService.ListAccounts(c.Request.Context(), owner, includeInactive)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondOK(c, mapAccountsToResponse(accounts))
}

// EnsureDefaults creates the starter accounts for an owner that has none
func (h *AccountHandler) EnsureDefaults(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	accounts, err := h.accountService.EnsureDefaultAccounts(c.Request.Context(), owner)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondOK(c, mapAccountsToResponse(accounts))
}

func (h *AccountHandler) Summary(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	summary, err := h.accountService.Summary(c.Request.Context(), owner)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondOK(c, summary)
}

// Create opens an account with a zero balance
func (h *AccountHandler) Create(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	acc, err := h.accountService.CreateAccount(c.Request.Context(), owner, account.Spec{
		Name:        req.Name,
		Kind:        account.Kind(req.Kind),
		CreditLimit: req.CreditLimit,
		Icon:        req.Icon,
		Color:       req.Color,
	})
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapAccountToResponse(acc))
}

// GetByID retrieves account details by its ID, returns 404 if not found
func (h *AccountHandler) GetByID(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	acc, err := h.accountService.GetAccount(c.Request.Context(), owner, id)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// Update patches the descriptive fields of an account
func (h *AccountHandler) Update(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	patch := account.Patch{
		Name:        req.Name,
		CreditLimit: req.CreditLimit,
		Icon:        req.Icon,
		Color:       req.Color,
	}
	if req.Kind != nil {
		kind := account.Kind(*req.Kind)
		patch.Kind = &kind
	}

	acc, err := h.accountService.UpdateAccount(c.Request.Context(), owner, id, patch)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// Deactivate hides an account that no transaction references
func (h *AccountHandler) Deactivate(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	acc, err := h.accountService.DeactivateAccount(c.Request.Context(), owner, id)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}
