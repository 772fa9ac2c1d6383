// Package handlers exposes the site's JSON API over gin.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/activity"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/auth"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/careers"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/catalog"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/leads"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/metrics"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/middleware"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/payment"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the services the handlers call
type Deps struct {
	ServiceName  string
	Payments     *payment.Service
	Leads        *leads.Service
	Careers      *careers.Service
	Catalog      catalog.Source
	Transactions *store.Transactions
	LeadStore    *store.Leads
	Activity     *activity.Log
	Sessions     *auth.Sessions
	// RateLimiter guards /api when set
	RateLimiter  *middleware.RateLimiter
	SecureCookie bool
	// AllowedOrigins enables CORS for the listed site origins
	AllowedOrigins []string
	// GatewayState reports the persistence breaker state on /health
	GatewayState func() string
}

// Handler serves the HTTP API
type Handler struct {
	Deps
}

// New creates a handler
func New(d Deps) *Handler {
	if d.ServiceName == "" {
		d.ServiceName = "site-service"
	}
	return &Handler{Deps: d}
}

// Router builds the gin engine with every route mounted
func (h *Handler) Router() *gin.Engine {
	router := gin.Default()

	// Add Prometheus middleware
	router.Use(metrics.PrometheusMiddleware(h.ServiceName))

	if len(h.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     h.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h.RegisterRoutes(router)
	return router
}

// RegisterRoutes mounts the /api routes on r
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	api := r.Group("/api")
	if h.RateLimiter != nil {
		api.Use(h.RateLimiter.Middleware(h.ServiceName))
	}

	// Checkout
	api.POST("/transactions", h.createTransaction)
	api.POST("/transactions/verify", h.verifyTransaction)
	api.GET("/transactions/:id/qr", h.paymentQR)
	api.POST("/create-payment-link", h.createPaymentLink)
	api.GET("/formations", h.listFormations)

	// Funnels
	api.POST("/ramadan-promo/finalize", h.finalizePromo)
	api.POST("/ecommerce/create-lead", h.createEcommerceLead)

	// Careers
	api.GET("/jobs", h.listOpenJobs)
	api.GET("/jobs/:id", h.getOpenJob)
	api.POST("/careers/apply", h.applyToJob)

	admin := api.Group("/admin")
	admin.POST("/login", h.login)
	admin.POST("/logout", h.logout)

	guarded := admin.Group("", middleware.RequireAdmin(h.Sessions))
	guarded.GET("/transactions", h.listTransactions)
	guarded.GET("/leads", h.listLeads)
	guarded.PATCH("/leads/:source/:id/status", h.updateLeadStatus)
	guarded.GET("/jobs", h.listJobs)
	guarded.POST("/jobs", h.createJob)
	guarded.PATCH("/jobs/:id", h.updateJob)
	guarded.POST("/jobs/:id/toggle", h.toggleJob)
	guarded.GET("/applications", h.listApplications)
	guarded.PATCH("/applications/:id/status", h.updateApplicationStatus)
	guarded.GET("/activity", h.listActivity)
}

func (h *Handler) health(c *gin.Context) {
	body := gin.H{
		"service":   h.ServiceName,
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if h.GatewayState != nil {
		body["gateway_circuit"] = h.GatewayState()
	}
	c.JSON(http.StatusOK, body)
}
