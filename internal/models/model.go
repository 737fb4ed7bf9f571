package models

import "time"

// AuctionStatus is the lifecycle state of an auction
type AuctionStatus string

const (
	AuctionDraft     AuctionStatus = "draft"
	AuctionActive    AuctionStatus = "active"
	AuctionClosed    AuctionStatus = "closed"
	AuctionCancelled AuctionStatus = "cancelled"
)

// BidStatus is the admission state of a bid
type BidStatus string

const (
	BidAccepted BidStatus = "accepted"
	BidRejected BidStatus = "rejected"
	BidOutbid   BidStatus = "outbid"
)

// AuditAction identifies the kind of security-relevant event being recorded
type AuditAction string

const (
	ActionLogin              AuditAction = "LOGIN"
	ActionRegister           AuditAction = "REGISTER"
	ActionLogout             AuditAction = "LOGOUT"
	ActionBidPlace           AuditAction = "BID_PLACE"
	ActionResourceAccess     AuditAction = "RESOURCE_ACCESS"
	ActionSuspicious         AuditAction = "SUSPICIOUS"
	ActionUnauthorizedAccess AuditAction = "UNAUTHORIZED_ACCESS"
)

// AuditStatus marks an audit entry as a success or failure outcome
type AuditStatus string

const (
	AuditSuccess AuditStatus = "success"
	AuditFailure AuditStatus = "failure"
)

// PriceRange is the predicted min/max band for an auction's final price
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// AIInsights holds advisory pricing analysis for an auction. Written only by
// the pricing ingestion path, never by user requests.
type AIInsights struct {
	PredictedPrice     float64        `json:"predicted_price"`
	PriceRange         PriceRange     `json:"price_range"`
	Confidence         float64        `json:"confidence"`
	LastUpdated        time.Time      `json:"last_updated"`
	AdditionalInsights map[string]any `json:"additional_insights,omitempty"`
}

// FraudAnalysis is the risk assessment attached to a bid by the ingestor
type FraudAnalysis struct {
	RiskScore  float64   `json:"risk_score"`
	IsFlagged  bool      `json:"is_flagged"`
	Reasons    []string  `json:"reasons"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// Auction represents a sale listing. Version is bumped on every successful
// compare-and-swap update; concurrent writers holding a stale version lose.
type Auction struct {
	AuctionID        string        `json:"auction_id"`
	SellerID         string        `json:"seller_id"`
	Title            string        `json:"title"`
	Status           AuctionStatus `json:"status"`
	StartingPrice    float64       `json:"starting_price"`
	ReservePrice     float64       `json:"reserve_price,omitempty"`
	BuyNowPrice      float64       `json:"buy_now_price,omitempty"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          time.Time     `json:"end_time"`
	HighestBidID     string        `json:"highest_bid_id,omitempty"`
	HighestBidAmount float64       `json:"highest_bid_amount"`
	AIInsights       *AIInsights   `json:"ai_insights,omitempty"`
	Version          uint64        `json:"version"`
}

// Bid represents a user's bid on an auction. Immutable after admission except
// for Status (accepted -> outbid) and FraudAnalysis.
type Bid struct {
	BidID         string         `json:"bid_id"`
	AuctionID     string         `json:"auction_id"`
	BidderID      string         `json:"bidder_id"`
	Amount        float64        `json:"amount"`
	PlacedAt      time.Time      `json:"placed_at"`
	Status        BidStatus      `json:"status"`
	IPAddress     string         `json:"ip_address,omitempty"`
	FraudAnalysis *FraudAnalysis `json:"fraud_analysis,omitempty"`
}

// AuditEntry is one append-only record of a security-relevant event
type AuditEntry struct {
	EntryID   string         `json:"entry_id"`
	Timestamp time.Time      `json:"timestamp"`
	UserID    string         `json:"user_id,omitempty"`
	Email     string         `json:"email,omitempty"`
	IPAddress string         `json:"ip_address"`
	UserAgent string         `json:"user_agent,omitempty"`
	Action    AuditAction    `json:"action"`
	Status    AuditStatus    `json:"status"`
	Details   map[string]any `json:"details,omitempty"`
}
