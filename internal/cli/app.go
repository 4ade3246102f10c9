package cli

import (
	"errors"
	"fmt"

	"stringtracker/internal/config"
	"stringtracker/internal/database"
	"stringtracker/internal/logger"
	"stringtracker/internal/repositories"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds the resources shared by every command.
type app struct {
	cfg     *config.Config
	db      *gorm.DB
	guitars repositories.GuitarRepository
	brands  repositories.BrandRepository
	users   repositories.UserRepository

	closers []func()
}

// bootstrap loads configuration, installs the logger and opens the store.
func bootstrap(configFile string) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	flush, err := logger.Setup(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, closers: []func(){flush}}

	db, err := database.Open(cfg.Database)
	switch {
	case errors.Is(err, database.ErrNoDatabase):
		zap.S().Named("cli").Warn("using in-memory store, data is lost on exit")
		a.guitars, a.brands = repositories.NewMemoryRepositories()
		a.users = repositories.NewMemoryUserRepository()
		return a, nil
	case err != nil:
		a.Close()
		return nil, err
	}

	a.db = db
	a.closers = append(a.closers, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	a.guitars = repositories.NewGORMGuitarRepository(db)
	a.brands = repositories.NewGORMBrandRepository(db)
	a.users = repositories.NewGORMUserRepository(db)
	return a, nil
}

// syncSchema runs AutoMigrate in development. Production schemas are
// managed by the migrate command.
func (a *app) syncSchema() error {
	if a.db == nil || !a.cfg.IsDevelopment() {
		return nil
	}
	if err := database.AutoMigrate(a.db); err != nil {
		return fmt.Errorf("failed to synchronize schema: %w", err)
	}
	return nil
}

func (a *app) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
