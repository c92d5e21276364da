package cmd

import (
	"context"
	"fmt"

	"recipe-restful/config"
	"recipe-restful/database"
	"recipe-restful/services"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// startup is the readiness check for the server: every backing store answers and
// the schema and seed data are in place. Preparation runs once, on the first
// attempt where the stores are reachable.
type startup struct {
	db       *gorm.DB
	rdb      *redis.Client // nil when redis is not configured
	users    services.UserService
	cfg      config.Config
	logger   *zap.Logger
	prepared bool
}

var _ database.Pinger = (*startup)(nil)

func (s *startup) PingContext(ctx context.Context) error {
	if err := database.GormPinger(s.db).PingContext(ctx); err != nil {
		return err
	}
	if s.rdb != nil {
		if err := s.rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	if s.prepared {
		return nil
	}
	if err := s.prepare(); err != nil {
		return err
	}
	s.prepared = true
	return nil
}

func (s *startup) prepare() error {
	if s.cfg.Database.AutoMigrate {
		if err := database.Migrate(s.db); err != nil {
			return err
		}
		s.logger.Info("database schema migrated")
	}

	su := s.cfg.Superuser
	if su.Email == "" {
		return nil
	}
	user, created, err := s.users.EnsureSuperuser(su.Email, su.Password)
	if err != nil {
		return fmt.Errorf("seeding superuser: %w", err)
	}
	if created {
		s.logger.Info("superuser created", zap.Uint("id", user.ID), zap.String("email", user.Email))
	}
	return nil
}
