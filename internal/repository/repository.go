package repository

import (
	"context"
	"errors"
	"time"

	"github.com/eugene953/TheraAid-Server/internal/aucterrors"
	"github.com/eugene953/TheraAid-Server/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ============================================================================
// Users
// ============================================================================

// CreateUser creates a new user
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetUserByID retrieves a user by ID
func (r *Repository) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, aucterrors.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, aucterrors.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UserExists reports whether a user with the given ID exists
func (r *Repository) UserExists(ctx context.Context, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Count(&count).Error
	return count > 0, err
}

// ============================================================================
// Auctions
// ============================================================================

// CreateAuction creates a new auction
func (r *Repository) CreateAuction(ctx context.Context, auction *models.Auction) error {
	return r.db.WithContext(ctx).Create(auction).Error
}

// GetAuctionByID retrieves an auction by ID
func (r *Repository) GetAuctionByID(ctx context.Context, auctionID uint) (*models.Auction, error) {
	var auction models.Auction
	err := r.db.WithContext(ctx).Where("id = ?", auctionID).First(&auction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, aucterrors.ErrAuctionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &auction, nil
}

// GetAuctions retrieves all auctions, newest first
func (r *Repository) GetAuctions(ctx context.Context) ([]*models.Auction, error) {
	var auctions []*models.Auction
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&auctions).Error
	if err != nil {
		return nil, err
	}
	return auctions, nil
}

// GetUserAuctions retrieves all auctions owned by a user
func (r *Repository) GetUserAuctions(ctx context.Context, userID uint) ([]*models.Auction, error) {
	var auctions []*models.Auction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&auctions).Error
	if err != nil {
		return nil, err
	}
	return auctions, nil
}

// UpdateAuction saves the given auction
func (r *Repository) UpdateAuction(ctx context.Context, auction *models.Auction) error {
	return r.db.WithContext(ctx).Save(auction).Error
}

// UpdateAuctionFields applies a partial update to an auction
func (r *Repository) UpdateAuctionFields(ctx context.Context, auctionID uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&models.Auction{}).
		Where("id = ?", auctionID).
		Updates(fields).Error
}

// DeleteAuction deletes an auction and all of its bids
func (r *Repository) DeleteAuction(ctx context.Context, auctionID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("auction_id = ?", auctionID).Delete(&models.Bid{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Auction{}, auctionID).Error
	})
}

// ============================================================================
// Lifecycle transitions
// ============================================================================

// ActivateDueAuctions flips upcoming auctions whose start date has
// passed (and whose end date has not) to active. Idempotent.
func (r *Repository) ActivateDueAuctions(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Auction{}).
		Where("start_date <= ? AND end_date > ? AND status <> ?",
			now, now, models.AuctionStatusActive).
		Update("status", models.AuctionStatusActive)
	return result.RowsAffected, result.Error
}

// EndExpiredAuctions flips auctions whose end date has passed to ended
// and returns the newly ended auction IDs. A stale upcoming auction
// whose end date already passed goes straight to ended, never through
// active. Idempotent: an auction already marked ended is not returned
// again. Select and update run in one transaction so a concurrent tick
// cannot claim the same auctions.
func (r *Repository) EndExpiredAuctions(ctx context.Context, now time.Time) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Auction{}).
			Where("end_date <= ? AND status <> ?", now, models.AuctionStatusEnded).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Model(&models.Auction{}).
			Where("id IN ?", ids).
			Update("status", models.AuctionStatusEnded).Error
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ============================================================================
// Bids
// ============================================================================

// InsertBid inserts a bid using the given transaction handle
func (r *Repository) InsertBid(tx *gorm.DB, bid *models.Bid) error {
	return tx.Create(bid).Error
}

// HighestBidAmount returns the maximum bid amount for an auction within
// the given transaction, and whether any bid exists.
func (r *Repository) HighestBidAmount(tx *gorm.DB, auctionID uint) (decimal.Decimal, bool, error) {
	var row struct {
		Max decimal.NullDecimal
	}
	err := tx.Model(&models.Bid{}).
		Select("MAX(amount) AS max").
		Where("auction_id = ?", auctionID).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, false, err
	}
	if !row.Max.Valid {
		return decimal.Zero, false, nil
	}
	return row.Max.Decimal, true, nil
}

// GetBidsByAuction retrieves all bids for an auction, newest first
func (r *Repository) GetBidsByAuction(ctx context.Context, auctionID uint) ([]*models.Bid, error) {
	var bids []*models.Bid
	err := r.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("bid_time DESC").
		Find(&bids).Error
	if err != nil {
		return nil, err
	}
	return bids, nil
}

// ============================================================================
// Winners
// ============================================================================

// topBidSubquery selects the single winning bid id for an auction:
// highest amount, ties broken by earliest bid time, then lowest id.
const topBidSubquery = `SELECT b2.id FROM bids b2 WHERE b2.auction_id = a.id
	ORDER BY b2.amount DESC, b2.bid_time ASC, b2.id ASC LIMIT 1`

// TopBid returns the winning bid for an auction within the given
// transaction, applying the deterministic tiebreak.
func (r *Repository) TopBid(tx *gorm.DB, auctionID uint) (*models.Bid, error) {
	var bid models.Bid
	err := tx.Where("auction_id = ?", auctionID).
		Order("amount DESC, bid_time ASC, id ASC").
		First(&bid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, aucterrors.ErrNoBids
	}
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// AuctionWinners returns the winner of every ended auction that
// received at least one bid.
func (r *Repository) AuctionWinners(ctx context.Context) ([]models.WinnerInfo, error) {
	var winners []models.WinnerInfo
	err := r.db.WithContext(ctx).Raw(`
		SELECT a.id AS auction_id, a.title AS auction_title,
		       u.id AS winner_id, u.username, u.email,
		       b.amount, b.bid_time
		FROM auctions a
		JOIN bids b ON b.auction_id = a.id
		JOIN users u ON u.id = b.user_id
		WHERE a.status = ? AND b.id = (`+topBidSubquery+`)
		ORDER BY a.end_date DESC`,
		models.AuctionStatusEnded).Scan(&winners).Error
	if err != nil {
		return nil, err
	}
	return winners, nil
}

// UserAuctionWinners returns the auctions the given user has won.
func (r *Repository) UserAuctionWinners(ctx context.Context, userID uint) ([]models.WinnerInfo, error) {
	var winners []models.WinnerInfo
	err := r.db.WithContext(ctx).Raw(`
		SELECT a.id AS auction_id, a.title AS auction_title,
		       u.id AS winner_id, u.username, u.email,
		       b.amount, b.bid_time
		FROM auctions a
		JOIN bids b ON b.auction_id = a.id
		JOIN users u ON u.id = b.user_id
		WHERE a.status = ? AND u.id = ? AND b.id = (`+topBidSubquery+`)
		ORDER BY a.end_date DESC`,
		models.AuctionStatusEnded, userID).Scan(&winners).Error
	if err != nil {
		return nil, err
	}
	return winners, nil
}
