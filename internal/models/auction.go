package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AuctionStatus string

const (
	AuctionStatusUpcoming AuctionStatus = "upcoming"
	AuctionStatusActive   AuctionStatus = "active"
	AuctionStatusEnded    AuctionStatus = "ended"
)

// Auction represents a timed listing accepting competitive bids
type Auction struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Title           string          `gorm:"size:255;not null" json:"title"`
	Description     string          `gorm:"type:text" json:"description"`
	Category        string          `gorm:"size:100" json:"category"`
	Grade           string          `gorm:"size:50" json:"grade"`
	StartBid        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"start_bid"`
	StartDate       time.Time       `gorm:"not null;index" json:"start_date"`
	EndDate         time.Time       `gorm:"not null;index" json:"end_date"`
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	Image           string          `gorm:"size:500" json:"image"`
	Status          AuctionStatus   `gorm:"size:20;not null;default:upcoming;index" json:"status"`
	WinnerAnnounced bool            `gorm:"not null;default:false" json:"-"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (Auction) TableName() string {
	return "auctions"
}

// StatusAt computes the status an auction should have at the given
// instant. The persisted status may lag behind by at most one
// scheduler tick; this function is the source of truth.
func StatusAt(now, startDate, endDate time.Time) AuctionStatus {
	if !endDate.After(now) {
		return AuctionStatusEnded
	}
	if !startDate.After(now) {
		return AuctionStatusActive
	}
	return AuctionStatusUpcoming
}

// CreateAuctionRequest represents a request to create a new auction
type CreateAuctionRequest struct {
	Title       string          `json:"title" binding:"required,max=255"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Grade       string          `json:"grade"`
	StartBid    decimal.Decimal `json:"start_bid" binding:"required"`
	StartDate   time.Time       `json:"start_date" binding:"required"`
	EndDate     time.Time       `json:"end_date" binding:"required"`
	Image       string          `json:"image"`
}

// UpdateAuctionRequest represents a request to update auction details
type UpdateAuctionRequest struct {
	Title       string          `json:"title" binding:"required,max=255"`
	Description string          `json:"description"`
	StartBid    decimal.Decimal `json:"start_bid" binding:"required"`
	StartDate   time.Time       `json:"start_date" binding:"required"`
	EndDate     time.Time       `json:"end_date" binding:"required"`
}

// RepostAuctionRequest resets the dates of an ended auction
type RepostAuctionRequest struct {
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date" binding:"required"`
}
