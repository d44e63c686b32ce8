package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"smallbiznis-stampcard/pkg/config"
	"smallbiznis-stampcard/pkg/db"
	"smallbiznis-stampcard/pkg/logger"
	"smallbiznis-stampcard/pkg/middleware"
	"smallbiznis-stampcard/services/loyalty"
)

// demo profiles for local development
var profiles = []loyalty.Profile{
	{ID: "staff-demo", FullName: "Demo Staff", Role: loyalty.RoleStaff},
	{ID: "admin-demo", FullName: "Demo Admin", Role: loyalty.RoleAdmin},
	{ID: "customer-demo", FullName: "Demo Customer", Role: loyalty.RoleCustomer, CashbackPoints: 10, Stamps: 7},
}

const tokenTTL = 24 * time.Hour

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		middleware.Module,
		fx.Invoke(seed),
		fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }),
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
	_ = app.Stop(context.Background())
}

func seed(cfg *config.Config, log *zap.Logger, conn *gorm.DB, auth *middleware.Authenticator) error {
	if cfg.AppEnv == "production" {
		log.Warn("refusing to seed a production database")
		return nil
	}

	if err := conn.AutoMigrate(loyalty.Models()...); err != nil {
		return err
	}

	for _, p := range profiles {
		row := p
		if err := conn.Where(loyalty.Profile{ID: row.ID}).FirstOrCreate(&row).Error; err != nil {
			return err
		}

		token, err := auth.Sign(row.ID, string(row.Role), tokenTTL)
		if err != nil {
			log.Warn("profile seeded without token", zap.String("id", row.ID), zap.Error(err))
			continue
		}
		log.Info("profile seeded",
			zap.String("id", row.ID),
			zap.String("role", string(row.Role)),
			zap.String("token", token),
		)
	}

	return nil
}
