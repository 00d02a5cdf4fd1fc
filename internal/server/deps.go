package server

import (
	"gorm.io/gorm"

	"estatehub_backend/internal/account"
	"estatehub_backend/internal/agent"
	"estatehub_backend/internal/catalog"
	"estatehub_backend/internal/inquiry"
	"estatehub_backend/internal/search"
	"estatehub_backend/pkg/metrics"
	"estatehub_backend/pkg/storage"
	"estatehub_backend/pkg/utils/jwt"
)

// Wire builds every service over one database and media store.
func Wire(db *gorm.DB, store storage.Store, tokens *jwt.Issuer, notifier inquiry.Notifier, priceThreshold int64) Deps {
	inquiries := inquiry.NewService(db, notifier)
	deps := Deps{
		Accounts:  account.NewService(db, tokens, store),
		Agents:    agent.NewService(db, store, inquiries),
		Catalog:   catalog.NewService(db, store, priceThreshold),
		Inquiries: inquiries,
		Search:    search.NewService(db, store),
		Ping: func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Ping()
		},
		Collect: func() { metrics.RecordDBStats(db) },
	}
	if local, ok := store.(*storage.LocalStore); ok {
		deps.MediaDir = local.Root()
	}
	return deps
}
