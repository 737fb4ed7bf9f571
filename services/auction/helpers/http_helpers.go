package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"auction-core/internal/auctionerrors"
	model "auction-core/internal/models"
	"auction-core/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, auctionerrors.ErrBidNotFound):
		return http.StatusNotFound, "bid not found"
	case errors.Is(err, auctionerrors.ErrInvalidBid):
		return http.StatusBadRequest, "invalid bid details"
	case errors.Is(err, auctionerrors.ErrInvalidSignal):
		return http.StatusBadRequest, "invalid signal payload"
	case errors.Is(err, auctionerrors.ErrNoBids):
		return http.StatusOK, "no bids found for auction"
	case errors.Is(err, auctionerrors.ErrSecurityCheckUnavailable):
		return http.StatusServiceUnavailable, "security check unavailable"
	case errors.Is(err, auctionerrors.ErrAccountLocked):
		return http.StatusForbidden, "account locked"
	case errors.Is(err, auctionerrors.ErrIPBlocked):
		return http.StatusForbidden, "ip blocked"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// MapReasonToHTTP maps an admission rejection reason code to an HTTP status.
func MapReasonToHTTP(reason string) int {
	switch reason {
	case auctionerrors.ReasonBidTooLow, auctionerrors.ReasonConcurrentUpdateConflict:
		return http.StatusConflict
	case auctionerrors.ReasonAuctionNotActive:
		return http.StatusUnprocessableEntity
	case auctionerrors.ReasonSelfBidForbidden:
		return http.StatusForbidden
	case auctionerrors.ReasonAccountLocked, auctionerrors.ReasonIPBlocked:
		return http.StatusForbidden
	case auctionerrors.ReasonSecurityCheckUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

// ToBidResponse converts a domain bid into its wire shape
func ToBidResponse(bid model.Bid) BidResponse {
	return BidResponse{
		BidID:     bid.BidID,
		AuctionID: bid.AuctionID,
		BidderID:  bid.BidderID,
		Amount:    bid.Amount,
		Status:    string(bid.Status),
		PlacedAt:  bid.PlacedAt.UTC().Format(time.RFC3339),
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
