package app

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hrflow/internal/actiontoken"
	"hrflow/internal/audit"
	"hrflow/internal/auth"
	"hrflow/internal/balance"
	"hrflow/internal/config"
	"hrflow/internal/leave"
	"hrflow/internal/messaging/kafka"
	"hrflow/internal/middleware"
	"hrflow/internal/orgunit"
	"hrflow/internal/policy"
	"hrflow/internal/rbac"
	"hrflow/internal/shared/clock"
	"hrflow/internal/user"
	"hrflow/internal/wfh"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	cfg config.Config,
) error {
	clk := clock.NewSystemClock()

	// --- Repositories ---
	auditRepo := audit.NewRepository(gormDB)
	balanceRepo := balance.NewRepository(db)
	leaveRepo := leave.NewRepository(gormDB, db)
	orgUnitRepo := orgunit.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)
	policyRepo := policy.NewRepository(gormDB)
	tokenRepo := actiontoken.NewRepository(db)
	userRepo := user.NewRepository(gormDB)
	wfhRepo := wfh.NewRepository(gormDB, db)

	// --- Cross-cutting ---
	recorder := audit.NewRecorder(auditRepo)
	ledger := balance.NewLedger(balanceRepo)

	rbacService, err := rbac.NewService(userRepo)
	if err != nil {
		return err
	}

	// --- Services ---
	tokenService := actiontoken.NewService(db, tokenRepo, clk, cfg, recorder)
	authService := auth.NewService(userRepo, clk, cfg)
	balanceService := balance.NewService(db, ledger, recorder)
	orgUnitService := orgunit.NewService(db, orgUnitRepo)
	policyService := policy.NewService(db, policyRepo, orgUnitRepo, userRepo, cfg)
	userService := user.NewService(db, userRepo, outboxRepo, recorder, rdb)
	leaveService := leave.NewService(
		db, leaveRepo, userRepo, policyService, policyRepo,
		ledger, tokenService, outboxRepo, recorder, clk, cfg,
	)
	wfhService := wfh.NewService(
		db, wfhRepo, userRepo, tokenService, outboxRepo, recorder, clk, cfg,
	)

	// --- Handlers ---
	auditHandler := audit.NewHandler(auditRepo)
	authHandler := auth.NewHandler(authService)
	balanceHandler := balance.NewHandler(balanceService)
	leaveHandler := leave.NewHandlerWithRedis(leaveService, rdb)
	orgUnitHandler := orgunit.NewHandler(orgUnitService)
	policyHandler := policy.NewHandler(policyService)
	rbacHandler := rbac.NewHandler(rbacService)
	tokenHandler := actiontoken.NewHandler(tokenService)
	userHandler := user.NewHandler(userService)
	wfhHandler := wfh.NewHandler(wfhService)

	router.Use(middleware.RequestID(), middleware.ContextLogger(zap.L()))

	api := router.Group("/api/v1")
	{
		actiontoken.RegisterRoutes(api, tokenHandler)
		audit.RegisterRoutes(api, auditHandler, rbacService)
		auth.RegisterRoutes(api, authHandler)
		balance.RegisterRoutes(api, balanceHandler, rbacService)
		leave.RegisterRoutes(api, leaveHandler, rbacService, rdb)
		orgunit.RegisterRoutes(api, orgUnitHandler, rbacService)
		policy.RegisterRoutes(api, policyHandler, rbacService)
		rbac.RegisterRoutes(api, rbacHandler, rbacService)
		user.RegisterRoutes(api, userHandler, rbacService)
		wfh.RegisterRoutes(api, wfhHandler, rbacService)
	}

	return nil
}
