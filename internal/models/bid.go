package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bid is an immutable monetary offer against an auction. Amounts for a
// given auction are strictly increasing in acceptance order.
type Bid struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	AuctionID uint            `gorm:"not null;index" json:"auction_id"`
	UserID    uint            `gorm:"not null;index" json:"user_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	BidTime   time.Time       `gorm:"not null" json:"bid_time"`

	Auction *Auction `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Bid) TableName() string {
	return "bids"
}

// PlaceBidRequest represents a request to place a bid on an auction
type PlaceBidRequest struct {
	AuctionID uint            `json:"auction_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
}

// WinnerInfo is the derived winner record for an ended auction
type WinnerInfo struct {
	AuctionID    uint            `json:"auction_id"`
	AuctionTitle string          `json:"auction_title"`
	WinnerID     uint            `json:"winner_id"`
	Username     string          `json:"username"`
	Email        string          `json:"-"`
	Amount       decimal.Decimal `json:"highest_bid"`
	BidTime      time.Time       `json:"bid_time"`
}
