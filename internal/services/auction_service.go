package services

import (
	"context"
	"fmt"
	"time"

	"github.com/eugene953/TheraAid-Server/internal/aucterrors"
	"github.com/eugene953/TheraAid-Server/internal/models"
	"github.com/eugene953/TheraAid-Server/internal/repository"
)

// AuctionService handles auction CRUD and the repost operation. Status
// transitions over time belong to the lifecycle scheduler; an auction is
// never mutated by a bid.
type AuctionService struct {
	repo *repository.Repository
}

func NewAuctionService(repo *repository.Repository) *AuctionService {
	return &AuctionService{repo: repo}
}

// CreateAuction creates a new auction owned by the given user
func (s *AuctionService) CreateAuction(ctx context.Context, ownerID uint, req *models.CreateAuctionRequest) (*models.Auction, error) {
	if !req.StartBid.IsPositive() {
		return nil, fmt.Errorf("%w: start_bid must be positive", aucterrors.ErrInvalidAuction)
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, fmt.Errorf("%w: end_date must be after start_date", aucterrors.ErrInvalidAuction)
	}

	auction := &models.Auction{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Grade:       req.Grade,
		StartBid:    req.StartBid,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		UserID:      ownerID,
		Image:       req.Image,
		Status:      models.StatusAt(time.Now().UTC(), req.StartDate, req.EndDate),
	}

	if err := s.repo.CreateAuction(ctx, auction); err != nil {
		return nil, fmt.Errorf("failed to create auction: %w", err)
	}

	return auction, nil
}

// GetAuctions returns all auctions
func (s *AuctionService) GetAuctions(ctx context.Context) ([]*models.Auction, error) {
	return s.repo.GetAuctions(ctx)
}

// GetAuctionByID returns a single auction
func (s *AuctionService) GetAuctionByID(ctx context.Context, auctionID uint) (*models.Auction, error) {
	return s.repo.GetAuctionByID(ctx, auctionID)
}

// GetUserAuctions returns the auctions owned by a user
func (s *AuctionService) GetUserAuctions(ctx context.Context, userID uint) ([]*models.Auction, error) {
	return s.repo.GetUserAuctions(ctx, userID)
}

// UpdateAuction updates auction details. Owner only.
func (s *AuctionService) UpdateAuction(ctx context.Context, auctionID, userID uint, req *models.UpdateAuctionRequest) (*models.Auction, error) {
	auction, err := s.repo.GetAuctionByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if auction.UserID != userID {
		return nil, aucterrors.ErrNotOwner
	}
	if !req.StartBid.IsPositive() {
		return nil, fmt.Errorf("%w: start_bid must be positive", aucterrors.ErrInvalidAuction)
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, fmt.Errorf("%w: end_date must be after start_date", aucterrors.ErrInvalidAuction)
	}

	auction.Title = req.Title
	auction.Description = req.Description
	auction.StartBid = req.StartBid
	auction.StartDate = req.StartDate
	auction.EndDate = req.EndDate
	auction.Status = models.StatusAt(time.Now().UTC(), req.StartDate, req.EndDate)

	if err := s.repo.UpdateAuction(ctx, auction); err != nil {
		return nil, fmt.Errorf("failed to update auction: %w", err)
	}

	return auction, nil
}

// DeleteAuction deletes an auction and its bids. Owner only.
func (s *AuctionService) DeleteAuction(ctx context.Context, auctionID, userID uint) error {
	auction, err := s.repo.GetAuctionByID(ctx, auctionID)
	if err != nil {
		return err
	}
	if auction.UserID != userID {
		return aucterrors.ErrNotOwner
	}

	return s.repo.DeleteAuction(ctx, auctionID)
}

// RepostAuction relists an ended auction with fresh dates. The status
// is recomputed from the new dates and the winner announcement flag is
// cleared so the next ending is announced again.
func (s *AuctionService) RepostAuction(ctx context.Context, auctionID, userID uint, req *models.RepostAuctionRequest) (*models.Auction, error) {
	auction, err := s.repo.GetAuctionByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if auction.UserID != userID {
		return nil, aucterrors.ErrNotOwner
	}
	if auction.Status != models.AuctionStatusEnded {
		return nil, aucterrors.ErrNotEnded
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, fmt.Errorf("%w: end_date must be after start_date", aucterrors.ErrInvalidAuction)
	}

	newStatus := models.StatusAt(time.Now().UTC(), req.StartDate, req.EndDate)

	err = s.repo.UpdateAuctionFields(ctx, auctionID, map[string]interface{}{
		"start_date":       req.StartDate,
		"end_date":         req.EndDate,
		"status":           newStatus,
		"winner_announced": false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to repost auction: %w", err)
	}

	return s.repo.GetAuctionByID(ctx, auctionID)
}
