package integrationtests

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	model "auction-core/internal/models"

	"github.com/stretchr/testify/require"
)

// Full bid lifecycle over the HTTP surface
func TestBidLifecycle(t *testing.T) {
	env := SetupTestRouter(t, ActiveAuction("auction1", "seller1", 100, 0))

	// First bid at the starting price is accepted
	resp, w := PlaceBid(t, env, "auction1", "user1", 100)
	require.Equal(t, http.StatusCreated, w.Code)
	data := resp["data"].(map[string]any)
	require.Equal(t, true, data["accepted"])
	firstBidID := data["bid"].(map[string]any)["bid_id"].(string)

	// An equal bid is rejected with the authoritative floor
	resp, w = PlaceBid(t, env, "auction1", "user2", 100)
	require.Equal(t, http.StatusConflict, w.Code)
	data = resp["data"].(map[string]any)
	require.Equal(t, false, data["accepted"])
	require.Equal(t, "BID_TOO_LOW", data["reason"])
	require.Equal(t, 100.0, data["current_highest"])

	// A strictly higher bid wins and outbids the first
	resp, w = PlaceBid(t, env, "auction1", "user2", 150)
	require.Equal(t, http.StatusCreated, w.Code)
	data = resp["data"].(map[string]any)
	require.Equal(t, true, data["accepted"])

	// The listing shows both bids with the first flipped to outbid
	resp, w = ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/auctions/auction1/bids", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	bids := resp["data"].([]any)
	require.Len(t, bids, 2)
	first := bids[0].(map[string]any)
	require.Equal(t, firstBidID, first["bid_id"])
	require.Equal(t, "outbid", first["status"])
	require.Equal(t, "accepted", bids[1].(map[string]any)["status"])

	// The highest-bid view reports the winner
	resp, w = ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/auctions/auction1/highest", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = resp["data"].(map[string]any)
	require.Equal(t, true, data["has_bids"])
	require.Equal(t, 150.0, data["current_highest"])
}

// Rejection paths surface the right status and reason codes
func TestBidRejections(t *testing.T) {
	draft := ActiveAuction("auction2", "seller1", 100, 0)
	draft.Status = model.AuctionDraft

	ended := ActiveAuction("auction3", "seller1", 100, 0)
	ended.EndTime = time.Now().UTC().Add(-time.Minute)

	env := SetupTestRouter(t,
		ActiveAuction("auction1", "seller1", 100, 0),
		draft,
		ended,
	)

	tests := []struct {
		name       string
		auctionID  string
		bidderID   string
		amount     float64
		wantStatus int
		wantReason string
	}{
		{name: "Unknown_Auction", auctionID: "missing", bidderID: "user1", amount: 100, wantStatus: http.StatusUnprocessableEntity, wantReason: "AUCTION_NOT_ACTIVE"},
		{name: "Draft_Auction", auctionID: "auction2", bidderID: "user1", amount: 100, wantStatus: http.StatusUnprocessableEntity, wantReason: "AUCTION_NOT_ACTIVE"},
		{name: "Ended_Auction", auctionID: "auction3", bidderID: "user1", amount: 100, wantStatus: http.StatusUnprocessableEntity, wantReason: "AUCTION_NOT_ACTIVE"},
		{name: "Self_Bid", auctionID: "auction1", bidderID: "seller1", amount: 100, wantStatus: http.StatusForbidden, wantReason: "SELF_BID_FORBIDDEN"},
		{name: "Below_Starting_Price", auctionID: "auction1", bidderID: "user1", amount: 99, wantStatus: http.StatusConflict, wantReason: "BID_TOO_LOW"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, w := PlaceBid(t, env, tt.auctionID, tt.bidderID, tt.amount)
			require.Equal(t, tt.wantStatus, w.Code)
			data := resp["data"].(map[string]any)
			require.Equal(t, false, data["accepted"])
			require.Equal(t, tt.wantReason, data["reason"])
		})
	}
}

// Buy-now closes the auction atomically with the winning admission
func TestBuyNowClosesAuction(t *testing.T) {
	env := SetupTestRouter(t, ActiveAuction("auction1", "seller1", 100, 500))

	resp, w := PlaceBid(t, env, "auction1", "user1", 500)
	require.Equal(t, http.StatusCreated, w.Code)
	data := resp["data"].(map[string]any)
	require.Equal(t, true, data["accepted"])
	require.Equal(t, true, data["buy_now_triggered"])

	auction, err := env.Store.FindAuction("auction1")
	require.NoError(t, err)
	require.Equal(t, model.AuctionClosed, auction.Status)

	// Any later bid, even higher, finds the auction closed
	resp, w = PlaceBid(t, env, "auction1", "user2", 1000)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	data = resp["data"].(map[string]any)
	require.Equal(t, "AUCTION_NOT_ACTIVE", data["reason"])
}

// Webhooks require the shared secret
func TestWebhookAuthentication(t *testing.T) {
	env := SetupTestRouter(t, ActiveAuction("auction1", "seller1", 100, 0))

	resp, w := PlaceBid(t, env, "auction1", "user1", 150)
	require.Equal(t, http.StatusCreated, w.Code)
	bidID := resp["data"].(map[string]any)["bid"].(map[string]any)["bid_id"].(string)

	signal := map[string]any{"bid_id": bidID, "risk_score": 0.9}

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
	}{
		{name: "Missing_Secret", headers: nil, wantStatus: http.StatusUnauthorized},
		{name: "Wrong_Secret", headers: map[string]string{"X-Webhook-Secret": "wrong"}, wantStatus: http.StatusUnauthorized},
		{name: "Valid_Secret", headers: map[string]string{"X-Webhook-Secret": WebhookSecret}, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, w := ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/webhooks/fraud-analysis", signal, tt.headers)
			require.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

// Fraud signal flow: apply, flag, and ignore the stale late arrival
func TestFraudSignalFlow(t *testing.T) {
	env := SetupTestRouter(t, ActiveAuction("auction1", "seller1", 100, 0))
	auth := map[string]string{"X-Webhook-Secret": WebhookSecret}

	resp, w := PlaceBid(t, env, "auction1", "user1", 150)
	require.Equal(t, http.StatusCreated, w.Code)
	bidID := resp["data"].(map[string]any)["bid"].(map[string]any)["bid_id"].(string)

	newer := time.Now().UTC()
	older := newer.Add(-time.Minute)

	resp, w = ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/webhooks/fraud-analysis", map[string]any{
		"bid_id":     bidID,
		"risk_score": 0.95,
		"reasons":    []string{"velocity"},
		"timestamp":  newer,
	}, auth)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, resp["data"].(map[string]any)["applied"])

	bid, err := env.Store.FindBid(bidID)
	require.NoError(t, err)
	require.NotNil(t, bid.FraudAnalysis)
	require.True(t, bid.FraudAnalysis.IsFlagged)

	// A stale signal with an older timestamp is acknowledged but ignored
	resp, w = ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/webhooks/fraud-analysis", map[string]any{
		"bid_id":     bidID,
		"risk_score": 0.1,
		"timestamp":  older,
	}, auth)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, false, resp["data"].(map[string]any)["applied"])

	bid, err = env.Store.FindBid(bidID)
	require.NoError(t, err)
	require.Equal(t, 0.95, bid.FraudAnalysis.RiskScore)
}

// Price prediction flow updates the auction's advisory insights
func TestPricePredictionFlow(t *testing.T) {
	env := SetupTestRouter(t, ActiveAuction("auction1", "seller1", 100, 0))
	auth := map[string]string{"X-Webhook-Secret": WebhookSecret}

	resp, w := ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/webhooks/price-prediction", map[string]any{
		"auction_id":      "auction1",
		"predicted_price": 220.0,
		"confidence":      0.8,
		"price_range":     map[string]any{"min": 180.0, "max": 260.0},
	}, auth)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, resp["data"].(map[string]any)["applied"])

	auction, err := env.Store.FindAuction("auction1")
	require.NoError(t, err)
	require.NotNil(t, auction.AIInsights)
	require.Equal(t, 220.0, auction.AIInsights.PredictedPrice)
	require.Equal(t, 180.0, auction.AIInsights.PriceRange.Min)
}

// An IP that crossed the suspicious threshold is rejected on every route
func TestIPBlocking(t *testing.T) {
	env := SetupTestRouter(t, ActiveAuction("auction1", "seller1", 100, 0))

	// httptest requests originate from 192.0.2.1
	const clientIP = "192.0.2.1"
	for i := 0; i < 3; i++ {
		require.NoError(t, env.Monitor.RecordSuspiciousEvent(context.Background(), clientIP, "test probe"))
	}

	resp, w := PlaceBid(t, env, "auction1", "user1", 150)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "IP_BLOCKED", resp["reason"])

	// Read routes are gated too
	resp, w = ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/auctions/auction1/bids", nil, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "IP_BLOCKED", resp["reason"])
}

// Rapid bidding is recorded as a suspicious signal but never blocks a bid
func TestRapidBiddingSoftSignal(t *testing.T) {
	env := SetupTestRouter(t, ActiveAuction("auction1", "seller1", 100, 0))

	for i := 1; i <= 6; i++ {
		_, w := PlaceBid(t, env, "auction1", "user1", float64(100+i*10))
		require.Equal(t, http.StatusCreated, w.Code, "rapid bidding must not gate admission")
	}

	resp, w := ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/admin/audit?action=SUSPICIOUS&user_id=user1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := resp["data"].([]any)
	require.NotEmpty(t, entries, "rapid bidding must leave a suspicious audit trail")
	entry := entries[0].(map[string]any)
	require.Equal(t, "rapid bidding", entry["details"].(map[string]any)["reason"])
}

// Audit query surface over a real flow
func TestAuditQuery(t *testing.T) {
	env := SetupTestRouter(t, ActiveAuction("auction1", "seller1", 100, 0))

	for i := 1; i <= 3; i++ {
		_, w := PlaceBid(t, env, "auction1", fmt.Sprintf("user%d", i), float64(100+i*10))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	resp, w := ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/admin/audit?action=BID_PLACE", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := resp["data"].([]any)
	require.Len(t, entries, 3)

	resp, w = ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/admin/audit?action=BID_PLACE&user_id=user2", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries = resp["data"].([]any)
	require.Len(t, entries, 1)
	require.Equal(t, "user2", entries[0].(map[string]any)["user_id"])

	resp, w = ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/admin/audit?action=BID_PLACE&limit=2", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp["data"].([]any), 2)
}

// Realtime watchers observe the admission fan-out
func TestRealtimeFanout(t *testing.T) {
	env := SetupTestRouter(t, ActiveAuction("auction1", "seller1", 100, 0))

	sub := env.Hub.Subscribe("auction1")
	defer sub.Close()

	_, w := PlaceBid(t, env, "auction1", "user1", 150)
	require.Equal(t, http.StatusCreated, w.Code)
	_, w = PlaceBid(t, env, "auction1", "user2", 200)
	require.Equal(t, http.StatusCreated, w.Code)

	wantTypes := []string{"bid-accepted", "bid-accepted", "bid-outbid"}
	for _, want := range wantTypes {
		select {
		case event := <-sub.C:
			require.Equal(t, want, string(event.Type))
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s event", want)
		}
	}
}
