package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrBidNotFound     = errors.New("bid not found")
	ErrNoBids          = errors.New("no bids found for auction")
	ErrVersionConflict = errors.New("auction version conflict")
)

// Admission errors
var (
	ErrInvalidBid       = errors.New("invalid bid")
	ErrAuctionNotActive = errors.New("auction not active")
	ErrSelfBidForbidden = errors.New("seller cannot bid on own auction")
	ErrBidTooLow        = errors.New("bid amount too low")
	ErrConcurrentUpdate = errors.New("concurrent update conflict")
)

// Security errors
var (
	ErrAccountLocked            = errors.New("account locked")
	ErrIPBlocked                = errors.New("ip blocked")
	ErrSecurityCheckUnavailable = errors.New("security check unavailable")
)

// Fraud ingestion errors
var (
	ErrInvalidSignal = errors.New("invalid fraud signal")
)

// Machine-readable reason codes carried on admission and security rejections
const (
	ReasonAuctionNotActive         = "AUCTION_NOT_ACTIVE"
	ReasonSelfBidForbidden         = "SELF_BID_FORBIDDEN"
	ReasonBidTooLow                = "BID_TOO_LOW"
	ReasonConcurrentUpdateConflict = "CONCURRENT_UPDATE_CONFLICT"
	ReasonAccountLocked            = "ACCOUNT_LOCKED"
	ReasonIPBlocked                = "IP_BLOCKED"
	ReasonSecurityCheckUnavailable = "SECURITY_CHECK_UNAVAILABLE"
	ReasonBidNotFound              = "BID_NOT_FOUND"
)

// ReasonFor maps a domain error to its wire-level reason code. Unknown errors
// map to an empty reason so callers can fall back to a generic response.
func ReasonFor(err error) string {
	switch {
	case errors.Is(err, ErrAuctionNotActive):
		return ReasonAuctionNotActive
	case errors.Is(err, ErrSelfBidForbidden):
		return ReasonSelfBidForbidden
	case errors.Is(err, ErrBidTooLow):
		return ReasonBidTooLow
	case errors.Is(err, ErrConcurrentUpdate):
		return ReasonConcurrentUpdateConflict
	case errors.Is(err, ErrAccountLocked):
		return ReasonAccountLocked
	case errors.Is(err, ErrIPBlocked):
		return ReasonIPBlocked
	case errors.Is(err, ErrSecurityCheckUnavailable):
		return ReasonSecurityCheckUnavailable
	case errors.Is(err, ErrBidNotFound):
		return ReasonBidNotFound
	default:
		return ""
	}
}
