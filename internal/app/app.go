package app

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hrflow/internal/actiontoken"
	"hrflow/internal/audit"
	"hrflow/internal/balance"
	"hrflow/internal/config"
	"hrflow/internal/leave"
	"hrflow/internal/orgunit"
	"hrflow/internal/policy"
	"hrflow/internal/shared/connection"
	"hrflow/internal/user"
	"hrflow/internal/wfh"
)

func BuildApp(router *gin.Engine, cfg config.Config) error {
	gormDB, err := connection.ConnectGORMWithRetry(
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode,
		5,
	)
	if err != nil {
		return err
	}
	zap.L().Info("database connection established")

	if err := migrate(gormDB); err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}

	rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, 5)
	if err != nil {
		return err
	}
	zap.L().Info("redis connection established")

	return registerModules(router, sqlDB, gormDB, rdb, cfg)
}

func migrate(gormDB *gorm.DB) error {
	if err := gormDB.AutoMigrate(
		&orgunit.OrgUnit{},
		&user.User{},
		&policy.LeaveType{},
		&policy.LeavePolicy{},
		&balance.Balance{},
		&leave.LeaveRequest{},
		&wfh.WFHRequest{},
		&actiontoken.ActionToken{},
		&audit.Record{},
	); err != nil {
		return err
	}

	for _, stmt := range rawMigrations {
		if err := gormDB.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
