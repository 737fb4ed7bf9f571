package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"auction-core/internal/admission"
	"auction-core/internal/auctionerrors"
	"auction-core/internal/audit"
	model "auction-core/internal/models"
	"auction-core/internal/repository"
	"auction-core/services/auction/helpers"
	"auction-core/utils"

	"github.com/gin-gonic/gin"
)

// AdmissionEngineInterface is the admission surface consumed by the handler
type AdmissionEngineInterface interface {
	AdmitBid(ctx context.Context, auctionID, bidderID, ip string, amount float64, now time.Time) (admission.Result, error)
}

// FraudIngestorInterface is the fraud ingestion surface consumed by the handler
type FraudIngestorInterface interface {
	ApplyFraudSignal(ctx context.Context, bidID string, riskScore float64, reasons []string, analyzedAt time.Time) (model.Bid, bool, error)
	ApplyPricePrediction(ctx context.Context, auctionID string, predictedPrice, confidence float64, priceRange model.PriceRange, at time.Time) (model.Auction, bool, error)
}

type AuctionHandler struct {
	engine   AdmissionEngineInterface
	ingestor FraudIngestorInterface
	store    repository.AuctionStore
	auditLog audit.Log
}

func NewAuctionHandler(engine AdmissionEngineInterface, ingestor FraudIngestorInterface, store repository.AuctionStore, auditLog audit.Log) *AuctionHandler {
	return &AuctionHandler{engine: engine, ingestor: ingestor, store: store, auditLog: auditLog}
}

// PlaceBidHandler handles POST /auctions/:auction_id/bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	result, err := h.engine.AdmitBid(c.Request.Context(), auctionID, req.BidderID, c.ClientIP(), req.Amount, time.Now())
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		if reason := auctionerrors.ReasonFor(err); reason != "" {
			utils.JSONReasonError(c, status, reason, fmt.Errorf("%s: %w", message, err), nil)
		} else {
			utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		}
		utils.Error("PlaceBidHandler: admission failed", map[string]any{
			"auction_id": auctionID,
			"bidder_id":  req.BidderID,
			"error":      err.Error(),
		})
		return
	}

	resp := helpers.AdmissionResponse{
		Accepted:        result.Accepted,
		CurrentHighest:  result.CurrentHighest,
		Reason:          result.Reason,
		BuyNowTriggered: result.BuyNowTriggered,
	}
	if result.Bid != nil {
		bidResp := helpers.ToBidResponse(*result.Bid)
		resp.Bid = &bidResp
	}

	if !result.Accepted {
		status := helpers.MapReasonToHTTP(result.Reason)
		utils.JSONResponse(c, status, resp, "bid rejected")
		utils.Warn("PlaceBidHandler: bid rejected", map[string]any{
			"auction_id":      auctionID,
			"bidder_id":       req.BidderID,
			"amount":          req.Amount,
			"reason":          result.Reason,
			"current_highest": result.CurrentHighest,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, resp, "bid accepted")
	helpers.LogSuccess("PlaceBidHandler", "bid accepted", map[string]any{
		"bid_id":     result.Bid.BidID,
		"auction_id": auctionID,
		"bidder_id":  req.BidderID,
		"amount":     req.Amount,
		"buy_now":    result.BuyNowTriggered,
	})
}

// GetAuctionBidsHandler handles GET /auctions/:auction_id/bids
func (h *AuctionHandler) GetAuctionBidsHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	bids, err := h.store.BidsByAuction(auctionID)
	if err != nil {
		// An auction with no bids is an empty list, not an error.
		bids = []model.Bid{}
	}

	responses := make([]helpers.BidResponse, 0, len(bids))
	for _, bid := range bids {
		responses = append(responses, helpers.ToBidResponse(bid))
	}

	utils.JSONResponse(c, http.StatusOK, responses, "bids retrieved successfully")
}

// GetHighestBidHandler handles GET /auctions/:auction_id/highest
func (h *AuctionHandler) GetHighestBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	auction, err := h.store.FindAuction(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		return
	}

	if auction.HighestBidID == "" {
		utils.JSONResponse(c, http.StatusOK, gin.H{
			"auction_id":      auctionID,
			"current_highest": auction.StartingPrice,
			"has_bids":        false,
		}, "no bids yet")
		return
	}

	bid, err := h.store.FindBid(auction.HighestBidID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{
		"auction_id":      auctionID,
		"current_highest": auction.HighestBidAmount,
		"has_bids":        true,
		"bid":             helpers.ToBidResponse(bid),
	}, "highest bid retrieved successfully")
}

// FraudSignalHandler handles POST /webhooks/fraud-analysis
func (h *AuctionHandler) FraudSignalHandler(c *gin.Context) {
	var req helpers.FraudSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "FraudSignalHandler", err)
		return
	}

	analyzedAt := time.Time{}
	if req.Timestamp != nil {
		analyzedAt = *req.Timestamp
	}

	bid, applied, err := h.ingestor.ApplyFraudSignal(c.Request.Context(), req.BidID, *req.RiskScore, req.Reasons, analyzedAt)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("FraudSignalHandler: signal rejected", map[string]any{"bid_id": req.BidID, "error": err.Error()})
		return
	}

	message := "fraud signal applied"
	if !applied {
		message = "stale fraud signal ignored"
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{
		"bid_id":  bid.BidID,
		"applied": applied,
	}, message)
	helpers.LogSuccess("FraudSignalHandler", message, map[string]any{
		"bid_id":     req.BidID,
		"risk_score": *req.RiskScore,
		"applied":    applied,
	})
}

// PricePredictionHandler handles POST /webhooks/price-prediction
func (h *AuctionHandler) PricePredictionHandler(c *gin.Context) {
	var req helpers.PricePredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PricePredictionHandler", err)
		return
	}

	at := time.Time{}
	if req.Timestamp != nil {
		at = *req.Timestamp
	}

	auction, applied, err := h.ingestor.ApplyPricePrediction(
		c.Request.Context(),
		req.AuctionID,
		req.PredictedPrice,
		*req.Confidence,
		model.PriceRange{Min: req.PriceRange.Min, Max: req.PriceRange.Max},
		at,
	)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("PricePredictionHandler: prediction rejected", map[string]any{"auction_id": req.AuctionID, "error": err.Error()})
		return
	}

	message := "price prediction applied"
	if !applied {
		message = "stale price prediction ignored"
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{
		"auction_id": auction.AuctionID,
		"applied":    applied,
	}, message)
}

// QueryAuditHandler handles GET /admin/audit
func (h *AuctionHandler) QueryAuditHandler(c *gin.Context) {
	filter := audit.Filter{
		UserID:    c.Query("user_id"),
		Email:     c.Query("email"),
		IPAddress: c.Query("ip"),
		Action:    model.AuditAction(c.Query("action")),
		Status:    model.AuditStatus(c.Query("status")),
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "100")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		filter.Offset = offset
	}

	entries, err := h.auditLog.Query(c.Request.Context(), filter)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, err, "audit query failed")
		return
	}

	utils.JSONResponse(c, http.StatusOK, entries, "audit entries retrieved successfully")
}
