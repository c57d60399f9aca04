package service

import (
	"context"
	"log/slog"

	ledger "github.com/mindful-finance-ledger/internal/ledger_engine/service"
	"github.com/mindful-finance-ledger/internal/migration"
)

// LegacyMigrator imports an owner's legacy records
type LegacyMigrator interface {
	Migrate(ctx context.Context, ownerID string) (*migration.Result, error)
}

type MaintenanceServiceImpl struct {
	engine   ledger.Engine
	migrator LegacyMigrator
	logger   *slog.Logger
}

func NewMaintenanceService(logger *slog.Logger, engine ledger.Engine, migrator LegacyMigrator) MaintenanceService {
	return &MaintenanceServiceImpl{
		engine:   engine,
		migrator: migrator,
		logger:   logger,
	}
}

func (s *MaintenanceServiceImpl) Reconcile(ctx context.Context, ownerID string) (*ledger.ReconcileResult, error) {
	return s.engine.Reconcile(ctx, ownerID)
}

func (s *MaintenanceServiceImpl) ValidateIntegrity(ctx context.Context, ownerID string) (*ledger.IntegrityReport, error) {
	report, err := s.engine.ValidateIntegrity(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !report.Valid {
		s.logger.Warn("Integrity issues found", "owner_id", ownerID, "issues", len(report.Issues))
	}
	return report, nil
}

func (s *MaintenanceServiceImpl) MigrateLegacy(ctx context.Context, ownerID string) (*migration.Result, error) {
	return s.migrator.Migrate(ctx, ownerID)
}
