package fraud

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

// casAttempts bounds insight updates racing against concurrent admissions.
const casAttempts = 3

// Ingestor merges asynchronous risk assessments from the external analysis
// process into bid and auction records. Signals arrive out of order; a signal
// older than the analysis already on record is ignored, never applied.
type Ingestor struct {
	store    repository.AuctionStore
	monitor  *security.Monitor
	notifier notifier.Notifier
	cfg      config.FraudConfig
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewIngestor creates a fraud signal ingestor.
func NewIngestor(store repository.AuctionStore, monitor *security.Monitor, n notifier.Notifier, cfg config.FraudConfig, m *metrics.Metrics) *Ingestor {
	if m == nil {
		m = metrics.New(nil)
	}
	return &Ingestor{
		store:    store,
		monitor:  monitor,
		notifier: n,
		cfg:      cfg,
		metrics:  m,
		now:      time.Now,
	}
}

// ApplyFraudSignal attaches a risk assessment to a bid. Returns the updated
// bid and whether the signal was applied; a stale signal (older analyzedAt
// than the one on record) returns the unchanged bid and applied=false.
// Re-applying an identical signal is a no-op with applied=true.
func (i *Ingestor) ApplyFraudSignal(ctx context.Context, bidID string, riskScore float64, reasons []string, analyzedAt time.Time) (model.Bid, bool, error) {
	if bidID == "" {
		return model.Bid{}, false, fmt.Errorf("fraud: %w - missing bid ID", auctionerrors.ErrInvalidSignal)
	}
	if riskScore < 0 || riskScore > 1 {
		return model.Bid{}, false, fmt.Errorf("fraud: %w - risk score %.3f outside [0,1]", auctionerrors.ErrInvalidSignal, riskScore)
	}
	if analyzedAt.IsZero() {
		analyzedAt = i.now().UTC()
	}

	flagged := riskScore > i.cfg.RiskFlagThreshold
	applied := false

	bid, err := i.store.UpdateBid(bidID, func(b *model.Bid) error {
		if existing := b.FraudAnalysis; existing != nil && existing.AnalyzedAt.After(analyzedAt) {
			// A newer analysis is already on record; drop the late arrival.
			return nil
		}
		b.FraudAnalysis = &model.FraudAnalysis{
			RiskScore:  riskScore,
			IsFlagged:  flagged,
			Reasons:    reasons,
			AnalyzedAt: analyzedAt,
		}
		applied = true
		return nil
	})
	if err != nil {
		if errors.Is(err, auctionerrors.ErrBidNotFound) {
			i.metrics.FraudSignalsTotal.WithLabelValues("unknown_bid").Inc()
		}
		return model.Bid{}, false, fmt.Errorf("fraud: applying signal to bid %s: %w", bidID, err)
	}

	if !applied {
		i.metrics.FraudSignalsTotal.WithLabelValues("stale").Inc()
		utils.Info("fraud: ignored stale signal", map[string]any{"bid_id": bidID, "analyzed_at": analyzedAt})
		return bid, false, nil
	}

	if flagged {
		i.metrics.FraudSignalsTotal.WithLabelValues("flagged").Inc()
		i.notifier.Publish(notifier.AdminChannel, notifier.Event{
			Type: notifier.EventFraudAlert,
			Payload: map[string]any{
				"bid_id":     bid.BidID,
				"auction_id": bid.AuctionID,
				"bidder_id":  bid.BidderID,
				"risk_score": riskScore,
				"reasons":    reasons,
			},
		})
		// A flagged bid from a known IP tightens future admission scrutiny
		// for that actor.
		if bid.IPAddress != "" {
			if err := i.monitor.RecordSuspiciousEvent(ctx, bid.IPAddress, "fraud-flagged bid"); err != nil {
				utils.Warn("fraud: could not record suspicious event", map[string]any{"ip": bid.IPAddress, "error": err.Error()})
			}
		}
	} else {
		i.metrics.FraudSignalsTotal.WithLabelValues("clean").Inc()
	}

	return bid, true, nil
}

// ApplyPricePrediction updates an auction's advisory pricing insights. The
// data never affects admission decisions; it exists for display and review.
// Last write wins by timestamp, mirroring the fraud-signal rule.
func (i *Ingestor) ApplyPricePrediction(ctx context.Context, auctionID string, predictedPrice, confidence float64, priceRange model.PriceRange, at time.Time) (model.Auction, bool, error) {
	if auctionID == "" {
		return model.Auction{}, false, fmt.Errorf("fraud: %w - missing auction ID", auctionerrors.ErrInvalidSignal)
	}
	if confidence < 0 || confidence > 1 {
		return model.Auction{}, false, fmt.Errorf("fraud: %w - confidence %.3f outside [0,1]", auctionerrors.ErrInvalidSignal, confidence)
	}
	if at.IsZero() {
		at = i.now().UTC()
	}

	var (
		updated model.Auction
		applied bool
	)

	r := retry.New(retry.Context(ctx), retry.Attempts(casAttempts))
	err := r.Do(func() error {
		auction, err := i.store.FindAuction(auctionID)
		if err != nil {
			return err
		}
		if existing := auction.AIInsights; existing != nil && existing.LastUpdated.After(at) {
			updated, applied = auction, false
			return nil
		}

		updated, err = i.store.CASUpdateAuction(auctionID, auction.Version, func(a *model.Auction) error {
			a.AIInsights = &model.AIInsights{
				PredictedPrice: predictedPrice,
				PriceRange:     priceRange,
				Confidence:     confidence,
				LastUpdated:    at,
			}
			return nil
		})
		if err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return model.Auction{}, false, fmt.Errorf("fraud: applying price prediction to auction %s: %w", auctionID, err)
	}

	if applied {
		i.notifier.Publish(auctionID, notifier.Event{
			Type:    notifier.EventAIInsights,
			Payload: updated.AIInsights,
		})
	}
	return updated, applied, nil
}
