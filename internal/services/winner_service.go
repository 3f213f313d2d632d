package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/eugene953/TheraAid-Server/internal/aucterrors"
	"github.com/eugene953/TheraAid-Server/internal/models"
	"github.com/eugene953/TheraAid-Server/internal/notify"
	"github.com/eugene953/TheraAid-Server/internal/repository"

	"gorm.io/gorm"
)

// WinnerService resolves the winning bid of ended auctions and
// announces each winner exactly once.
type WinnerService struct {
	db       *gorm.DB
	repo     *repository.Repository
	notifier notify.Publisher
}

func NewWinnerService(db *gorm.DB, repo *repository.Repository, notifier notify.Publisher) *WinnerService {
	return &WinnerService{
		db:       db,
		repo:     repo,
		notifier: notifier,
	}
}

// ResolveWinners computes the winner of each newly ended auction. The
// winner is the bid with the highest amount, ties broken by earliest
// bid time. Auctions without bids produce no winner and no event.
// Safe to call repeatedly for the same IDs: the winner_announced flag
// is flipped in the same transaction that selects the winner, so a
// retried tick cannot announce twice.
func (s *WinnerService) ResolveWinners(ctx context.Context, endedIDs []uint) ([]models.WinnerInfo, error) {
	var winners []models.WinnerInfo

	for _, auctionID := range endedIDs {
		info, announced, err := s.resolveOne(ctx, auctionID)
		if err != nil {
			log.Printf("[WinnerService] Failed to resolve auction %d: %v", auctionID, err)
			continue
		}
		if !announced {
			continue
		}

		winners = append(winners, *info)
		s.notifier.Publish(notify.NewAuctionWon(
			info.AuctionID, info.AuctionTitle,
			info.WinnerID, info.Username, info.Email,
			info.Amount,
		))
	}

	return winners, nil
}

// resolveOne claims and resolves a single ended auction. Returns
// announced=false when the auction was already announced or had no
// bids.
func (s *WinnerService) resolveOne(ctx context.Context, auctionID uint) (*models.WinnerInfo, bool, error) {
	var info *models.WinnerInfo

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var auction models.Auction
		if err := tx.Where("id = ?", auctionID).First(&auction).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return aucterrors.ErrAuctionNotFound
			}
			return err
		}

		if auction.Status != models.AuctionStatusEnded || auction.WinnerAnnounced {
			return nil
		}

		bid, err := s.repo.TopBid(tx, auctionID)
		if err != nil && !errors.Is(err, aucterrors.ErrNoBids) {
			return err
		}

		if bid != nil {
			winner, err := userInTx(tx, bid.UserID)
			if err != nil {
				return fmt.Errorf("failed to load winner %d: %w", bid.UserID, err)
			}
			info = &models.WinnerInfo{
				AuctionID:    auction.ID,
				AuctionTitle: auction.Title,
				WinnerID:     winner.ID,
				Username:     winner.Username,
				Email:        winner.Email,
				Amount:       bid.Amount,
				BidTime:      bid.BidTime,
			}
		}

		// The flag is set for zero-bid auctions too, so they are never
		// re-examined.
		return tx.Model(&auction).Update("winner_announced", true).Error
	})
	if err != nil {
		return nil, false, err
	}

	return info, info != nil, nil
}

// GetAuctionWinners returns the winner of every ended auction.
// Read-only projection with no side effects.
func (s *WinnerService) GetAuctionWinners(ctx context.Context) ([]models.WinnerInfo, error) {
	return s.repo.AuctionWinners(ctx)
}

// GetUserAuctionWinners returns the auctions the given user has won
func (s *WinnerService) GetUserAuctionWinners(ctx context.Context, userID uint) ([]models.WinnerInfo, error) {
	return s.repo.UserAuctionWinners(ctx, userID)
}

// GetAuctionWinner returns the winner of a single ended auction
func (s *WinnerService) GetAuctionWinner(ctx context.Context, auctionID uint) (*models.WinnerInfo, error) {
	auction, err := s.repo.GetAuctionByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if auction.Status != models.AuctionStatusEnded {
		return nil, aucterrors.ErrNotEnded
	}

	bid, err := s.repo.TopBid(s.db.WithContext(ctx), auctionID)
	if err != nil {
		return nil, err
	}

	winner, err := s.repo.GetUserByID(ctx, bid.UserID)
	if err != nil {
		return nil, err
	}

	return &models.WinnerInfo{
		AuctionID:    auction.ID,
		AuctionTitle: auction.Title,
		WinnerID:     winner.ID,
		Username:     winner.Username,
		Email:        winner.Email,
		Amount:       bid.Amount,
		BidTime:      bid.BidTime,
	}, nil
}

func userInTx(tx *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, aucterrors.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
