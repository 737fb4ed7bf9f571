package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
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

	"github.com/gin-gonic/gin"
)

// WebhookSecret is the shared secret the test router expects on webhook calls.
const WebhookSecret = "integration-secret"

// TestEnv bundles the router with the stores backing it, so tests can both
// drive the HTTP surface and inspect state directly.
type TestEnv struct {
	Router  *gin.Engine
	Store   *repository.MemoryStore
	Hub     *notifier.Hub
	Monitor *security.Monitor
	Audit   *audit.MemoryLog
}

// SetupTestRouter initializes the full stack on in-memory backends and seeds
// the given auctions.
func SetupTestRouter(t *testing.T, auctions ...model.Auction) *TestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Fraud.WebhookSecret = WebhookSecret

	store := repository.NewMemoryStore()
	for _, auction := range auctions {
		if err := store.SaveAuction(auction); err != nil {
			t.Fatalf("failed to seed auction %s: %v", auction.AuctionID, err)
		}
	}

	m := metrics.New(nil)
	auditLog := audit.NewMemoryLog()
	monitor := security.NewMonitor(counter.NewMemoryStore(), auditLog, cfg.Security)
	hub := notifier.NewHub(cfg.Notifier.SubscriberBuffer, m)
	engine := admission.NewEngine(store, monitor, hub, cfg.Admission, m)
	ingestor := fraud.NewIngestor(store, monitor, hub, cfg.Fraud, m)
	h := handler.NewAuctionHandler(engine, ingestor, store, auditLog)

	router := server.SetupRouter(server.Deps{
		Handler:       h,
		Monitor:       monitor,
		Hub:           hub,
		Metrics:       m,
		WebhookSecret: cfg.Fraud.WebhookSecret,
	})

	return &TestEnv{Router: router, Store: store, Hub: hub, Monitor: monitor, Audit: auditLog}
}

// ActiveAuction builds an auction open for bidding right now.
func ActiveAuction(auctionID, sellerID string, startingPrice, buyNowPrice float64) model.Auction {
	now := time.Now().UTC()
	return model.Auction{
		AuctionID:     auctionID,
		SellerID:      sellerID,
		Title:         auctionID + " title",
		Status:        model.AuctionActive,
		StartingPrice: startingPrice,
		BuyNowPrice:   buyNowPrice,
		StartTime:     now.Add(-time.Hour),
		EndTime:       now.Add(time.Hour),
	}
}

// ExecuteRequest executes an HTTP request and returns the response recorder.
func ExecuteRequest(t *testing.T, router *gin.Engine, method, url string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ExecuteRequestAndParse executes an HTTP request on the given router and
// parses the JSON response envelope.
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any, headers map[string]string) (map[string]any, *httptest.ResponseRecorder) {
	var reqBody []byte
	var err error

	switch v := body.(type) {
	case []byte:
		reqBody = v
	case nil:
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := ExecuteRequest(t, router, method, url, reqBody, headers)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return resp, w
}

// PlaceBid posts a bid and returns the parsed response envelope.
func PlaceBid(t *testing.T, env *TestEnv, auctionID, bidderID string, amount float64) (map[string]any, *httptest.ResponseRecorder) {
	return ExecuteRequestAndParse(t, env.Router, "POST", "/auctions/"+auctionID+"/bids",
		map[string]any{"bidder_id": bidderID, "amount": amount}, nil)
}
