package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mindful-finance-ledger/internal/api_gateway/service"
)

// MaintenanceHandler exposes reconciliation, integrity checks and the legacy import
type MaintenanceHandler struct {
	maintenanceService service.MaintenanceService
	logger             *slog.Logger
}

func NewMaintenanceHandler(logger *slog.Logger, maintenanceService service.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{
		maintenanceService: maintenanceService,
		logger:             logger,
	}
}

// Reconcile rebuilds every balance of the owner from the ledger
func (h *MaintenanceHandler) Reconcile(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	result, err := h.maintenanceService.Reconcile(c.Request.Context(), owner)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondOK(c, result)
}

// Integrity reports drift and dangling references without changing anything
func (h *MaintenanceHandler) Integrity(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	report, err := h.maintenanceService.ValidateIntegrity(c.Request.Context(), owner)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondOK(c, report)
}

// Migrate imports the owner's legacy records; a repeated call reports the earlier import
func (h *MaintenanceHandler) Migrate(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	result, err := h.maintenanceService.MigrateLegacy(c.Request.Context(), owner)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	status := http.StatusCreated
	if result.AlreadyMigrated {
		status = http.StatusOK
	}
	RespondWithData(c, status, result)
}
