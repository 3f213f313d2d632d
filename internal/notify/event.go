package notify

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventBidPlaced  EventType = "bidUpdates"
	EventAuctionWon EventType = "auctionWinnerNotification"
)

// Event is a single notification flowing through the fan-out. UserID is
// the user the event is about (the bidder or the winner); delivery is a
// broadcast with the winner additionally targeted directly.
type Event struct {
	ID           uuid.UUID       `json:"id"`
	Type         EventType       `json:"type"`
	AuctionID    uint            `json:"auction_id"`
	AuctionTitle string          `json:"auction_title"`
	UserID       uint            `json:"user_id"`
	Username     string          `json:"username"`
	Email        string          `json:"-"`
	Amount       decimal.Decimal `json:"amount"`
	Message      string          `json:"message"`
	Timestamp    time.Time       `json:"timestamp"`
}

// NewBidPlaced builds a bid-update event
func NewBidPlaced(auctionID uint, title string, bidderID uint, bidderName string, amount decimal.Decimal) Event {
	return Event{
		ID:           uuid.New(),
		Type:         EventBidPlaced,
		AuctionID:    auctionID,
		AuctionTitle: title,
		UserID:       bidderID,
		Username:     bidderName,
		Amount:       amount,
		Message: fmt.Sprintf("New bid placed: %s XAF by %s on %q",
			amount.StringFixed(2), bidderName, title),
		Timestamp: time.Now().UTC(),
	}
}

// NewAuctionWon builds a winner announcement event
func NewAuctionWon(auctionID uint, title string, winnerID uint, winnerName, winnerEmail string, amount decimal.Decimal) Event {
	return Event{
		ID:           uuid.New(),
		Type:         EventAuctionWon,
		AuctionID:    auctionID,
		AuctionTitle: title,
		UserID:       winnerID,
		Username:     winnerName,
		Email:        winnerEmail,
		Amount:       amount,
		Message: fmt.Sprintf("Congratulations %s! You won the auction for %q with a bid of %s XAF.",
			winnerName, title, amount.StringFixed(2)),
		Timestamp: time.Now().UTC(),
	}
}

// Publisher accepts events for best-effort delivery. Publish must never
// block and never surface an error to the caller.
type Publisher interface {
	Publish(event Event)
}

// NopPublisher discards every event
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}
