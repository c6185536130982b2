package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"partylodge/internal/infra/config"
	"partylodge/internal/infra/obs"
)

type OccupancyHTTP interface {
	Reserve(c *gin.Context)
	AttachOrder(c *gin.Context)
	Occupy(c *gin.Context)
	OccupyDirect(c *gin.Context)
	Release(c *gin.Context)
	Move(c *gin.Context)
	AppointManager(c *gin.Context)
	SetInternalRemark(c *gin.Context)
	SetPinned(c *gin.Context)
	UpdateDescription(c *gin.Context)
	UpdateAvatar(c *gin.Context)
	RemoveAvatar(c *gin.Context)
	AddOccupant(c *gin.Context)
	RemoveOccupant(c *gin.Context)
}

type BungalowHTTP interface {
	List(c *gin.Context)
	View(c *gin.Context)
	AuditLog(c *gin.Context)
	Stats(c *gin.Context)
	ManagedBy(c *gin.Context)
	Occupants(c *gin.Context)
}

type OffersHTTP interface {
	Offer(c *gin.Context)
	Withdraw(c *gin.Context)
	SetNetworkFlag(c *gin.Context)
}

type Handlers struct {
	Occupancy OccupancyHTTP
	Bungalow  BungalowHTTP
	Offers    OffersHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Occupancy != nil {
		api.POST("/reservations", h.Occupancy.Reserve)
		api.POST("/reservations/order", h.Occupancy.AttachOrder)
		api.POST("/reservations/occupy", h.Occupancy.Occupy)
		api.POST("/occupancies", h.Occupancy.OccupyDirect)
		occGroup := api.Group("/occupancies/:id")
		occGroup.POST("/release", h.Occupancy.Release)
		occGroup.POST("/move", h.Occupancy.Move)
		occGroup.POST("/manager", h.Occupancy.AppointManager)
		occGroup.PUT("/remark", h.Occupancy.SetInternalRemark)
		occGroup.PUT("/pinned", h.Occupancy.SetPinned)
		occGroup.PUT("/description", h.Occupancy.UpdateDescription)
		occGroup.PUT("/avatar", h.Occupancy.UpdateAvatar)
		occGroup.DELETE("/avatar", h.Occupancy.RemoveAvatar)
		occGroup.POST("/occupants", h.Occupancy.AddOccupant)
		occGroup.DELETE("/occupants", h.Occupancy.RemoveOccupant)
	}
	if h.Bungalow != nil {
		api.GET("/parties/:party_id/bungalows", h.Bungalow.List)
		api.GET("/parties/:party_id/bungalows/:number", h.Bungalow.View)
		api.GET("/parties/:party_id/stats", h.Bungalow.Stats)
		api.GET("/parties/:party_id/managed-by/:user_id", h.Bungalow.ManagedBy)
		api.GET("/bungalows/:id/log", h.Bungalow.AuditLog)
		api.GET("/occupancies/:id/occupants", h.Bungalow.Occupants)
	}
	if h.Offers != nil {
		admin := api.Group("/admin")
		admin.POST("/bungalows", h.Offers.Offer)
		admin.DELETE("/bungalows/:id", h.Offers.Withdraw)
		admin.PUT("/bungalows/:id/network", h.Offers.SetNetworkFlag)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
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
