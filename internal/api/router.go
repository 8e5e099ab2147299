package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gramchain/pkg/rbac"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	authHandler *AuthHandler,
	userHandler *UserHandler,
	ledgerHandler *LedgerHandler,
	projectHandler *ProjectHandler,
	pool *pgxpool.Pool,
	jwtSecret string,
) *Router {
	r := gin.Default()
	r.Use(MetricsMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if err := pool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)

	// Protected
	auth := r.Group("/")
	auth.Use(AuthMiddleware(jwtSecret))
	{
		auth.GET("/me", authHandler.Me)

		auth.GET("/users", userHandler.List)
		auth.GET("/users/:id", userHandler.Get)
		auth.PATCH("/users/:id", userHandler.Update)

		auth.GET("/transactions", ledgerHandler.ListTransactions)
		auth.POST("/transactions", RequirePermission(rbac.PermissionAllocateFunds), ledgerHandler.RecordTransaction)
		auth.GET("/ledger/summary", ledgerHandler.Summary)
		auth.DELETE("/ledger", RequirePermission(rbac.PermissionClearLedger), ledgerHandler.Clear)

		auth.GET("/projects", projectHandler.List)
		auth.GET("/projects/:id", projectHandler.Get)
		auth.POST("/projects", RequirePermission(rbac.PermissionCreateProject), projectHandler.Create)
		auth.POST("/projects/attested", RequirePermission(rbac.PermissionCreateProject), projectHandler.CreateAttested)
		auth.PATCH("/projects/:id", RequirePermission(rbac.PermissionCreateProject), projectHandler.Patch)
		auth.POST("/projects/:id/milestones/:mid/submit", RequirePermission(rbac.PermissionSubmitMilestone), projectHandler.SubmitMilestone)
		auth.POST("/projects/:id/milestones/:mid/approve", RequirePermission(rbac.PermissionApprovePayment), projectHandler.ApproveMilestone)

		auth.GET("/attestations/:cid", projectHandler.GetAttestation)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
