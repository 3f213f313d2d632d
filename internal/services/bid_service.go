package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/eugene953/TheraAid-Server/internal/aucterrors"
	"github.com/eugene953/TheraAid-Server/internal/models"
	"github.com/eugene953/TheraAid-Server/internal/notify"
	"github.com/eugene953/TheraAid-Server/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BidService is the bid ledger: it accepts bid attempts, enforces the
// strict-increase and ownership invariants, and persists accepted bids.
type BidService struct {
	db       *gorm.DB
	repo     *repository.Repository
	notifier notify.Publisher

	// locks serializes the read-compare-insert sequence per auction.
	// Bids on different auctions never contend on the same mutex.
	locks sync.Map // auction id -> *sync.Mutex
}

func NewBidService(db *gorm.DB, repo *repository.Repository, notifier notify.Publisher) *BidService {
	return &BidService{
		db:       db,
		repo:     repo,
		notifier: notifier,
	}
}

// PlaceBid validates and records a bid. Validation order: bidder
// exists, auction exists, bidder is not the owner, auction has not
// ended, amount exceeds max(starting bid, highest existing bid). The
// status check, highest-bid read and insert run against one snapshot:
// a single transaction guarded by the per-auction mutex.
func (s *BidService) PlaceBid(ctx context.Context, auctionID, bidderID uint, amount decimal.Decimal) (*models.Bid, error) {
	if !amount.IsPositive() {
		return nil, aucterrors.ErrInvalidAmount
	}

	bidder, err := s.repo.GetUserByID(ctx, bidderID)
	if err != nil {
		return nil, err
	}

	auction, err := s.repo.GetAuctionByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	if auction.UserID == bidderID {
		return nil, aucterrors.ErrSelfBid
	}

	mu := s.auctionLock(auctionID)
	mu.Lock()
	defer mu.Unlock()

	var bid *models.Bid
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Auction
		if err := tx.Where("id = ?", auctionID).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return aucterrors.ErrAuctionNotFound
			}
			return err
		}

		now := time.Now().UTC()
		if current.Status == models.AuctionStatusEnded ||
			models.StatusAt(now, current.StartDate, current.EndDate) == models.AuctionStatusEnded {
			return aucterrors.ErrAuctionClosed
		}

		// Threshold is always derived inside the transaction, never
		// cached: an auction with no bids is represented by its
		// starting bid, not zero.
		threshold := current.StartBid
		highest, hasBids, err := s.repo.HighestBidAmount(tx, auctionID)
		if err != nil {
			return fmt.Errorf("failed to read highest bid: %w", err)
		}
		if hasBids && highest.GreaterThan(threshold) {
			threshold = highest
		}

		if !amount.GreaterThan(threshold) {
			return &aucterrors.BidTooLowError{Threshold: threshold}
		}

		bid = &models.Bid{
			AuctionID: auctionID,
			UserID:    bidderID,
			Amount:    amount,
			BidTime:   now,
		}
		return s.repo.InsertBid(tx, bid)
	})
	if err != nil {
		return nil, err
	}

	// Emitted only after the commit. Delivery is best-effort and never
	// fails the bid.
	s.notifier.Publish(notify.NewBidPlaced(auctionID, auction.Title, bidderID, bidder.Username, amount))

	return bid, nil
}

// GetBidsForAuction returns all bids for an auction
func (s *BidService) GetBidsForAuction(ctx context.Context, auctionID uint) ([]*models.Bid, error) {
	if _, err := s.repo.GetAuctionByID(ctx, auctionID); err != nil {
		return nil, err
	}
	return s.repo.GetBidsByAuction(ctx, auctionID)
}

// GetHighestBid returns the current bid threshold for an auction: its
// starting bid if no bids exist, otherwise the highest accepted bid.
func (s *BidService) GetHighestBid(ctx context.Context, auctionID uint) (decimal.Decimal, error) {
	auction, err := s.repo.GetAuctionByID(ctx, auctionID)
	if err != nil {
		return decimal.Zero, err
	}

	threshold := auction.StartBid
	highest, hasBids, err := s.repo.HighestBidAmount(s.db.WithContext(ctx), auctionID)
	if err != nil {
		return decimal.Zero, err
	}
	if hasBids && highest.GreaterThan(threshold) {
		threshold = highest
	}
	return threshold, nil
}

func (s *BidService) auctionLock(auctionID uint) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(auctionID, &sync.Mutex{})
	return v.(*sync.Mutex)
}
