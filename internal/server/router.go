package server

import (
	"auction-core/internal/metrics"
	"auction-core/internal/notifier"
	"auction-core/internal/security"
	handler "auction-core/services/auction/handler"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps carries everything the router wires together.
type Deps struct {
	Handler       *handler.AuctionHandler
	Monitor       *security.Monitor
	Hub           *notifier.Hub
	Metrics       *metrics.Metrics
	WebhookSecret string
	Registry      *prometheus.Registry
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(deps Deps) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging
	router.Use(IPBlockMiddleware(deps.Monitor, deps.Metrics))

	auctions := router.Group("/auctions")
	{
		auctions.POST("/:auction_id/bids", deps.Handler.PlaceBidHandler)
		auctions.GET("/:auction_id/bids", deps.Handler.GetAuctionBidsHandler)
		auctions.GET("/:auction_id/highest", deps.Handler.GetHighestBidHandler)
		auctions.GET("/:auction_id/watch", notifier.WatchHandler(deps.Hub))
	}

	webhooks := router.Group("/webhooks")
	webhooks.Use(WebhookAuthMiddleware(deps.WebhookSecret))
	{
		webhooks.POST("/fraud-analysis", deps.Handler.FraudSignalHandler)
		webhooks.POST("/price-prediction", deps.Handler.PricePredictionHandler)
	}

	admin := router.Group("/admin")
	{
		admin.GET("/audit", deps.Handler.QueryAuditHandler)
	}

	if deps.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	return router
}
