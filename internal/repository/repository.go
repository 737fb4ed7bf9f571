package repository

import (
	"fmt"
	"sync"

	"auction-core/internal/auctionerrors"
	model "auction-core/internal/models"
)

// AuctionStore defines the persistence interface for auctions and bids. All
// auction writes go through optimistic versioning: an update carrying a stale
// version fails with ErrVersionConflict and the caller retries from a fresh
// read. This is the single serialization point for concurrent admissions on
// the same auction.
type AuctionStore interface {
	FindAuction(auctionID string) (model.Auction, error)
	SaveAuction(auction model.Auction) error
	// CASUpdateAuction applies mutate to the auction iff its version still
	// equals expectedVersion, bumping the version on success.
	CASUpdateAuction(auctionID string, expectedVersion uint64, mutate func(*model.Auction) error) (model.Auction, error)
	// ApplyAdmission atomically admits a bid: checks the version, stores the
	// bid as accepted, marks the previously highest bid as outbid, applies
	// mutate to the auction record and bumps its version. No interleaving
	// admission can observe a partially applied state.
	ApplyAdmission(auctionID string, expectedVersion uint64, bid model.Bid, mutate func(*model.Auction)) (model.Auction, error)
	CreateBid(bid model.Bid) error
	FindBid(bidID string) (model.Bid, error)
	UpdateBid(bidID string, mutate func(*model.Bid) error) (model.Bid, error)
	BidsByAuction(auctionID string) ([]model.Bid, error)
}

// MemoryStore is a concurrency-safe in-memory implementation of AuctionStore
type MemoryStore struct {
	mu       sync.RWMutex
	auctions map[string]model.Auction
	bids     map[string]model.Bid
	byAuct   map[string][]string // auctionID -> bid IDs in admission order
}

// NewMemoryStore creates a new in-memory store instance
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		auctions: make(map[string]model.Auction),
		bids:     make(map[string]model.Bid),
		byAuct:   make(map[string][]string),
	}
}

// FindAuction returns a snapshot of the auction, including its version
func (s *MemoryStore) FindAuction(auctionID string) (model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	auction, ok := s.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("find auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return auction, nil
}

// SaveAuction stores or replaces an auction record, starting it at version 1
// when unversioned.
func (s *MemoryStore) SaveAuction(auction model.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if auction.Version == 0 {
		auction.Version = 1
	}
	s.auctions[auction.AuctionID] = auction
	return nil
}

// CASUpdateAuction applies mutate under the store lock iff the caller's
// version is still current.
func (s *MemoryStore) CASUpdateAuction(auctionID string, expectedVersion uint64, mutate func(*model.Auction) error) (model.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	auction, ok := s.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("cas update auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if auction.Version != expectedVersion {
		return model.Auction{}, fmt.Errorf("cas update auction %s: expected version %d, have %d: %w",
			auctionID, expectedVersion, auction.Version, auctionerrors.ErrVersionConflict)
	}

	if err := mutate(&auction); err != nil {
		return model.Auction{}, err
	}
	auction.Version++
	s.auctions[auctionID] = auction
	return auction, nil
}

// ApplyAdmission performs the whole admission write set as one atomic step.
func (s *MemoryStore) ApplyAdmission(auctionID string, expectedVersion uint64, bid model.Bid, mutate func(*model.Auction)) (model.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	auction, ok := s.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("apply admission for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if auction.Version != expectedVersion {
		return model.Auction{}, fmt.Errorf("apply admission for auction %s: expected version %d, have %d: %w",
			auctionID, expectedVersion, auction.Version, auctionerrors.ErrVersionConflict)
	}

	if prevID := auction.HighestBidID; prevID != "" {
		if prev, exists := s.bids[prevID]; exists {
			prev.Status = model.BidOutbid
			s.bids[prevID] = prev
		}
	}

	bid.Status = model.BidAccepted
	s.bids[bid.BidID] = bid
	s.byAuct[auctionID] = append(s.byAuct[auctionID], bid.BidID)

	mutate(&auction)
	auction.Version++
	s.auctions[auctionID] = auction
	return auction, nil
}

// CreateBid stores a bid record outside of the admission path (e.g. rejected
// bids retained for analysis).
func (s *MemoryStore) CreateBid(bid model.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[bid.AuctionID]; !ok {
		return fmt.Errorf("create bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	s.bids[bid.BidID] = bid
	s.byAuct[bid.AuctionID] = append(s.byAuct[bid.AuctionID], bid.BidID)
	return nil
}

// FindBid returns a snapshot of a bid
func (s *MemoryStore) FindBid(bidID string) (model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bid, ok := s.bids[bidID]
	if !ok {
		return model.Bid{}, fmt.Errorf("find bid %s: %w", bidID, auctionerrors.ErrBidNotFound)
	}
	return bid, nil
}

// UpdateBid applies mutate to the bid under the store lock
func (s *MemoryStore) UpdateBid(bidID string, mutate func(*model.Bid) error) (model.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bid, ok := s.bids[bidID]
	if !ok {
		return model.Bid{}, fmt.Errorf("update bid %s: %w", bidID, auctionerrors.ErrBidNotFound)
	}
	if err := mutate(&bid); err != nil {
		return model.Bid{}, err
	}
	s.bids[bidID] = bid
	return bid, nil
}

// BidsByAuction returns all bids for an auction in admission order
func (s *MemoryStore) BidsByAuction(auctionID string) ([]model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, ok := s.byAuct[auctionID]
	if !ok || len(ids) == 0 {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}

	bids := make([]model.Bid, 0, len(ids))
	for _, id := range ids {
		if bid, exists := s.bids[id]; exists {
			bids = append(bids, bid)
		}
	}
	return bids, nil
}
