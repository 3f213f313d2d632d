package aucterrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Repository-level errors
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrAuctionNotFound = errors.New("auction not found")
	ErrNoBids          = errors.New("no bids found for auction")
)

// Business logic errors
var (
	ErrSelfBid        = errors.New("cannot bid on your own auction")
	ErrAuctionClosed  = errors.New("auction has ended")
	ErrBidTooLow      = errors.New("bid amount too low")
	ErrNotOwner       = errors.New("not the auction owner")
	ErrNotEnded       = errors.New("only ended auctions can be reposted")
	ErrInvalidAmount  = errors.New("bid amount must be positive")
	ErrInvalidAuction = errors.New("invalid auction data")
)

// BidTooLowError reports a rejected bid together with the threshold the
// next bid must exceed, so callers can surface it to the user.
type BidTooLowError struct {
	Threshold decimal.Decimal
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid must be higher than the current bid of %s", e.Threshold.StringFixed(2))
}

func (e *BidTooLowError) Unwrap() error {
	return ErrBidTooLow
}
