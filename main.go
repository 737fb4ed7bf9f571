package main

import (
	"fmt"
	"os"
	"time"

	"auction-core/internal/admission"
	"auction-core/internal/audit"
	"auction-core/internal/config"
	"auction-core/internal/counter"
	"auction-core/internal/fraud"
	"auction-core/internal/metrics"
	model "auction-core/internal/models"
	"auction-core/internal/notifier"
	"auction-core/internal/repository"
	"auction-core/internal/security"
	"auction-core/internal/server"
	handler "auction-core/services/auction/handler"
	"auction-core/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	utils.SetLevel(cfg.Logger.Level)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	store := repository.NewMemoryStore()
	prepopulateAuctions(store)

	counters := buildCounterStore(cfg)
	auditLog := audit.NewMemoryLog()
	monitor := security.NewMonitor(counters, auditLog, cfg.Security)
	hub := notifier.NewHub(cfg.Notifier.SubscriberBuffer, m)
	engine := admission.NewEngine(store, monitor, hub, cfg.Admission, m)
	ingestor := fraud.NewIngestor(store, monitor, hub, cfg.Fraud, m)

	auctionHandler := handler.NewAuctionHandler(engine, ingestor, store, auditLog)

	router := server.SetupRouter(server.Deps{
		Handler:       auctionHandler,
		Monitor:       monitor,
		Hub:           hub,
		Metrics:       m,
		WebhookSecret: cfg.Fraud.WebhookSecret,
		Registry:      registry,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	utils.Info("Starting auction server", map[string]any{"addr": addr})
	if err := router.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}

// buildCounterStore selects Redis when configured, in-memory otherwise
func buildCounterStore(cfg *config.Config) counter.Store {
	if cfg.Redis.Addr == "" {
		utils.Warn("No redis address configured, using in-memory counters", nil)
		return counter.NewMemoryStore()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return counter.NewRedisStore(client)
}

// prepopulateAuctions adds sample auctions to the in-memory store
func prepopulateAuctions(store *repository.MemoryStore) {
	now := time.Now().UTC()
	auctions := []model.Auction{
		{
			AuctionID:     "auction1",
			SellerID:      "seller1",
			Title:         "Vintage watch",
			Status:        model.AuctionActive,
			StartingPrice: 100,
			BuyNowPrice:   500,
			StartTime:     now.Add(-time.Hour),
			EndTime:       now.Add(24 * time.Hour),
		},
		{
			AuctionID:     "auction2",
			SellerID:      "seller2",
			Title:         "Painting",
			Status:        model.AuctionActive,
			StartingPrice: 200,
			ReservePrice:  350,
			StartTime:     now.Add(-time.Hour),
			EndTime:       now.Add(48 * time.Hour),
		},
		{
			AuctionID:     "auction3",
			SellerID:      "seller1",
			Title:         "Rare book",
			Status:        model.AuctionDraft,
			StartingPrice: 150,
			StartTime:     now.Add(time.Hour),
			EndTime:       now.Add(72 * time.Hour),
		},
	}

	for _, auction := range auctions {
		if err := store.SaveAuction(auction); err != nil {
			utils.Warn("failed to seed auction", map[string]any{"auction_id": auction.AuctionID, "error": err.Error()})
		}
	}
}
