package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-core/internal/auctionerrors"
	"auction-core/internal/config"
	"auction-core/internal/metrics"
	model "auction-core/internal/models"
	"auction-core/internal/notifier"
	"auction-core/internal/repository"
	"auction-core/internal/security"
	"auction-core/utils"

	"github.com/avast/retry-go/v5"
)

// Result is the typed outcome of a bid admission attempt. Expected rejections
// (too low, not active, lost race) are results, not errors: Reason carries
// the machine-readable code and CurrentHighest the authoritative amount the
// caller needs to retry correctly.
type Result struct {
	Accepted        bool
	Bid             *model.Bid
	CurrentHighest  float64
	Reason          string
	BuyNowTriggered bool
}

// Engine validates and admits bids against current auction state. Concurrent
// admissions on one auction are serialized through optimistic versioning on
// the auction record: losers of a race retry transparently from a fresh
// snapshot up to the configured attempt count, then surface
// CONCURRENT_UPDATE_CONFLICT.
type Engine struct {
	store    repository.AuctionStore
	monitor  *security.Monitor
	notifier notifier.Notifier
	cfg      config.AdmissionConfig
	metrics  *metrics.Metrics
}

// NewEngine creates a bid admission engine.
func NewEngine(store repository.AuctionStore, monitor *security.Monitor, n notifier.Notifier, cfg config.AdmissionConfig, m *metrics.Metrics) *Engine {
	if m == nil {
		m = metrics.New(nil)
	}
	return &Engine{
		store:    store,
		monitor:  monitor,
		notifier: n,
		cfg:      cfg,
		metrics:  m,
	}
}

// AdmitBid runs the admission decision for one incoming bid. Preconditions
// are checked in order, short-circuiting on the first failure: auction active
// and within its time window, bidder is not the seller, amount strictly above
// the current highest (or at least the starting price when no bids exist).
// On success the accepted bid, the outbid flip of the previous winner and the
// auction update (including buy-now closure) commit as one atomic step.
func (e *Engine) AdmitBid(ctx context.Context, auctionID, bidderID, ip string, amount float64, now time.Time) (Result, error) {
	if auctionID == "" || bidderID == "" {
		return Result{}, fmt.Errorf("admission: %w - missing auctionID or bidderID", auctionerrors.ErrInvalidBid)
	}
	if amount <= 0 {
		return Result{}, fmt.Errorf("admission: %w - non-positive bid amount", auctionerrors.ErrInvalidBid)
	}

	var (
		result   Result
		outbid   *model.Bid
		admitErr error
	)

	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(e.cfg.CASRetryAttempts),
		retry.Delay(e.cfg.CASRetryDelay),
	)

	// Only a lost version race is returned to the retrier; every other
	// outcome, success or not, is terminal and captured outside the loop.
	err := r.Do(func() error {
		res, prev, err := e.tryAdmit(auctionID, bidderID, ip, amount, now)
		if errors.Is(err, auctionerrors.ErrVersionConflict) {
			e.metrics.AdmissionRetries.Inc()
			return err
		}
		result, outbid, admitErr = res, prev, err
		return nil
	})
	if err != nil {
		// Retries exhausted on version conflicts.
		snapshot, findErr := e.store.FindAuction(auctionID)
		highest := 0.0
		if findErr == nil {
			highest = currentFloor(snapshot)
		}
		e.metrics.AdmissionsTotal.WithLabelValues(auctionerrors.ReasonConcurrentUpdateConflict).Inc()
		return Result{Accepted: false, Reason: auctionerrors.ReasonConcurrentUpdateConflict, CurrentHighest: highest}, nil
	}
	if admitErr != nil {
		return Result{}, admitErr
	}

	if result.Accepted {
		e.metrics.AdmissionsTotal.WithLabelValues("accepted").Inc()
		e.afterAdmission(ctx, result, outbid)
	} else {
		e.metrics.AdmissionsTotal.WithLabelValues(result.Reason).Inc()
	}
	return result, nil
}

// tryAdmit performs one snapshot-validate-swap cycle. It returns the previous
// highest bid (for the outbid notification) alongside the result.
func (e *Engine) tryAdmit(auctionID, bidderID, ip string, amount float64, now time.Time) (Result, *model.Bid, error) {
	auction, err := e.store.FindAuction(auctionID)
	if err != nil {
		if errors.Is(err, auctionerrors.ErrAuctionNotFound) {
			return Result{Accepted: false, Reason: auctionerrors.ReasonAuctionNotActive}, nil, nil
		}
		return Result{}, nil, fmt.Errorf("admission: loading auction %s: %w", auctionID, err)
	}

	if auction.Status != model.AuctionActive || now.Before(auction.StartTime) || !now.Before(auction.EndTime) {
		return Result{Accepted: false, Reason: auctionerrors.ReasonAuctionNotActive, CurrentHighest: currentFloor(auction)}, nil, nil
	}

	if bidderID == auction.SellerID {
		return Result{Accepted: false, Reason: auctionerrors.ReasonSelfBidForbidden, CurrentHighest: currentFloor(auction)}, nil, nil
	}

	floor := currentFloor(auction)
	if auction.HighestBidID == "" {
		// First bid must meet the starting price.
		if amount < auction.StartingPrice {
			return Result{Accepted: false, Reason: auctionerrors.ReasonBidTooLow, CurrentHighest: floor}, nil, nil
		}
	} else if amount <= auction.HighestBidAmount {
		// Strict increase; equal amounts lose to the earlier bid.
		return Result{Accepted: false, Reason: auctionerrors.ReasonBidTooLow, CurrentHighest: floor}, nil, nil
	}

	var previous *model.Bid
	if auction.HighestBidID != "" {
		if prev, findErr := e.store.FindBid(auction.HighestBidID); findErr == nil {
			previous = &prev
		}
	}

	bid := model.Bid{
		BidID:     utils.GenerateID(),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		PlacedAt:  now.UTC(),
		Status:    model.BidAccepted,
		IPAddress: ip,
	}

	buyNow := auction.BuyNowPrice > 0 && amount >= auction.BuyNowPrice

	_, err = e.store.ApplyAdmission(auctionID, auction.Version, bid, func(a *model.Auction) {
		a.HighestBidID = bid.BidID
		a.HighestBidAmount = bid.Amount
		if buyNow {
			// Closing inside the same swap leaves no window for a later bid
			// to race in after buy-now triggers.
			a.Status = model.AuctionClosed
		}
	})
	if err != nil {
		return Result{}, nil, err
	}

	return Result{
		Accepted:        true,
		Bid:             &bid,
		CurrentHighest:  bid.Amount,
		BuyNowTriggered: buyNow,
	}, previous, nil
}

// afterAdmission runs the side effects of a committed admission: the audit
// trail, the soft rapid-bidding signal, and the realtime fan-out. None of
// these can fail the already-committed decision.
func (e *Engine) afterAdmission(ctx context.Context, result Result, outbid *model.Bid) {
	bid := result.Bid

	e.monitor.RecordBid(ctx, bid.BidderID, bid.IPAddress, bid.BidID, bid.Amount)
	if e.monitor.IsRapidBidding(ctx, bid.BidderID) {
		utils.Warn("admission: rapid bidding detected", map[string]any{
			"user_id":    bid.BidderID,
			"auction_id": bid.AuctionID,
		})
	}

	e.notifier.Publish(bid.AuctionID, notifier.Event{
		Type:    notifier.EventBidAccepted,
		Payload: bid,
	})

	if outbid != nil {
		e.notifier.Publish(bid.AuctionID, notifier.Event{
			Type: notifier.EventBidOutbid,
			Payload: map[string]any{
				"bid_id":      outbid.BidID,
				"bidder_id":   outbid.BidderID,
				"amount":      outbid.Amount,
				"new_highest": bid.Amount,
			},
		})
	}

	if result.BuyNowTriggered {
		e.notifier.Publish(bid.AuctionID, notifier.Event{
			Type: notifier.EventAuctionClosed,
			Payload: map[string]any{
				"winning_bid_id": bid.BidID,
				"amount":         bid.Amount,
				"buy_now":        true,
			},
		})
	}
}

// currentFloor is the authoritative amount a retrying caller must beat: the
// highest accepted amount, or the starting price while no bids exist.
func currentFloor(a model.Auction) float64 {
	if a.HighestBidID == "" {
		return a.StartingPrice
	}
	return a.HighestBidAmount
}
