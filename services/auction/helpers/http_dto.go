package helpers

import "time"

// Request/Response DTOs
type PlaceBidRequest struct {
	BidderID string  `json:"bidder_id" binding:"required"`
	Amount   float64 `json:"amount" binding:"required,gt=0"`
}

type BidResponse struct {
	BidID     string  `json:"bid_id"`
	AuctionID string  `json:"auction_id"`
	BidderID  string  `json:"bidder_id"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
	PlacedAt  string  `json:"placed_at"`
}

// AdmissionResponse is the wire shape of a bid admission decision. Rejections
// carry the reason code and the authoritative current highest amount so the
// caller can retry with a higher value.
type AdmissionResponse struct {
	Accepted        bool         `json:"accepted"`
	Bid             *BidResponse `json:"bid,omitempty"`
	CurrentHighest  float64      `json:"current_highest"`
	Reason          string       `json:"reason,omitempty"`
	BuyNowTriggered bool         `json:"buy_now_triggered,omitempty"`
}

// FraudSignalRequest is the inbound webhook payload for bid risk assessments.
// RiskScore is a pointer so a legitimate score of 0 survives binding.
type FraudSignalRequest struct {
	BidID             string     `json:"bid_id" binding:"required"`
	RiskScore         *float64   `json:"risk_score" binding:"required"`
	Reasons           []string   `json:"reasons"`
	RecommendedAction string     `json:"recommended_action"`
	Timestamp         *time.Time `json:"timestamp"`
}

// PricePredictionRequest is the inbound webhook payload for auction price
// predictions.
type PricePredictionRequest struct {
	AuctionID      string     `json:"auction_id" binding:"required"`
	PredictedPrice float64    `json:"predicted_price" binding:"required,gt=0"`
	Confidence     *float64   `json:"confidence" binding:"required"`
	PriceRange     PriceRange `json:"price_range"`
	Timestamp      *time.Time `json:"timestamp"`
}

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}
