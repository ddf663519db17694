package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"spacio/internal/infra/config"
	"spacio/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	List(c *gin.Context)
	Approve(c *gin.Context)
	Decline(c *gin.Context)
	Cancel(c *gin.Context)
}

type ListingHTTP interface {
	Search(c *gin.Context)
	Get(c *gin.Context)
	Quote(c *gin.Context)
}

type HostListingHTTP interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	PriceSuggestion(c *gin.Context)
}

type Handlers struct {
	Booking        BookingHTTP
	Listing        ListingHTTP
	HostListing    HostListingHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the gin engine with every /api/v1 route registered.
func NewRouter(obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	api.GET("/livez", health.Livez)
	api.GET("/readyz", health.Readyz)
	if h.HostListing != nil {
		api.GET("/listings/mine", h.HostListing.List)
		api.POST("/listings", h.HostListing.Create)
		api.POST("/pricing/suggest", h.HostListing.PriceSuggestion)
	}
	if h.Listing != nil {
		api.GET("/listings", h.Listing.Search)
		api.GET("/listings/:id", h.Listing.Get)
		api.POST("/listings/:id/quote", h.Listing.Quote)
	}
	if h.Booking != nil {
		reservations := api.Group("/reservations")
		reservations.POST("", h.Booking.Create)
		reservations.GET("", h.Booking.List)
		reservations.POST("/:id/approve", h.Booking.Approve)
		reservations.POST("/:id/decline", h.Booking.Decline)
		reservations.POST("/:id/cancel", h.Booking.Cancel)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
