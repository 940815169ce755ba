package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	authHandler *AuthHandler,
	accountHandler *AccountHandler,
	ruleHandler *RuleHandler,
	logHandler *LogHandler,
	jobHandler *JobHandler,
	eventHandler *EventHandler,
	jwtSecret string,
) *Router {
	r := gin.Default()

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)

	// Protected
	auth := r.Group("/")
	auth.Use(AuthMiddleware(jwtSecret))
	{
		auth.GET("/accounts", accountHandler.ListAccounts)
		auth.DELETE("/accounts/:id", accountHandler.DeleteAccount)
		auth.GET("/accounts/:id/logs", logHandler.ListLogs)

		auth.GET("/rules", ruleHandler.ListRules)
		auth.POST("/rules", ruleHandler.CreateRule)
		auth.PUT("/rules/:id", ruleHandler.UpdateRule)
		auth.DELETE("/rules/:id", ruleHandler.DeleteRule)

		auth.POST("/jobs/run", jobHandler.RunJob)
		auth.GET("/jobs/status", jobHandler.JobStatus)

		auth.POST("/events/replay", eventHandler.ReplayFailedEvents)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
