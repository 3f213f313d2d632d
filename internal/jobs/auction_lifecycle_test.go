package jobs

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/eugene953/TheraAid-Server/internal/database"
	"github.com/eugene953/TheraAid-Server/internal/models"
	"github.com/eugene953/TheraAid-Server/internal/notify"
	"github.com/eugene953/TheraAid-Server/internal/repository"
	"github.com/eugene953/TheraAid-Server/internal/services"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db        *gorm.DB
	repo      *repository.Repository
	lifecycle *AuctionLifecycle
	pub       *capturePublisher
}

type capturePublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *capturePublisher) Publish(e notify.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *capturePublisher) count(t notify.EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

func setupEnv(t *testing.T) *testEnv {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	repo := repository.NewRepository(db)
	pub := &capturePublisher{}
	winners := services.NewWinnerService(db, repo, pub)
	return &testEnv{
		db:        db,
		repo:      repo,
		lifecycle: NewAuctionLifecycle(repo, winners, time.Minute),
		pub:       pub,
	}
}

func (e *testEnv) createUser(t *testing.T, username string) *models.User {
	user := &models.User{Username: username, Email: username + "@example.com", PasswordHash: "x"}
	if err := e.db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func (e *testEnv) createAuction(t *testing.T, ownerID uint, status models.AuctionStatus, start, end time.Time) *models.Auction {
	auction := &models.Auction{
		Title:     "Lifecycle Auction",
		StartBid:  decimal.NewFromInt(100),
		StartDate: start,
		EndDate:   end,
		UserID:    ownerID,
		Status:    status,
	}
	if err := e.db.Create(auction).Error; err != nil {
		t.Fatalf("failed to create auction: %v", err)
	}
	return auction
}

func (e *testEnv) status(t *testing.T, auctionID uint) models.AuctionStatus {
	var auction models.Auction
	if err := e.db.First(&auction, auctionID).Error; err != nil {
		t.Fatalf("failed to reload auction %d: %v", auctionID, err)
	}
	return auction.Status
}

func TestRunTickActivatesAndEnds(t *testing.T) {
	env := setupEnv(t)
	owner := env.createUser(t, "owner")
	now := time.Now().UTC()

	due := env.createAuction(t, owner.ID, models.AuctionStatusUpcoming,
		now.Add(-time.Minute), now.Add(time.Hour))
	expired := env.createAuction(t, owner.ID, models.AuctionStatusActive,
		now.Add(-2*time.Hour), now.Add(-time.Minute))
	future := env.createAuction(t, owner.ID, models.AuctionStatusUpcoming,
		now.Add(time.Hour), now.Add(2*time.Hour))

	if err := env.lifecycle.RunTick(context.Background(), now); err != nil {
		t.Fatalf("RunTick failed: %v", err)
	}

	if got := env.status(t, due.ID); got != models.AuctionStatusActive {
		t.Errorf("due auction: expected active, got %s", got)
	}
	if got := env.status(t, expired.ID); got != models.AuctionStatusEnded {
		t.Errorf("expired auction: expected ended, got %s", got)
	}
	if got := env.status(t, future.ID); got != models.AuctionStatusUpcoming {
		t.Errorf("future auction: expected upcoming, got %s", got)
	}
}

// An auction whose entire window elapsed between ticks must go
// straight to ended without passing through active.
func TestRunTickStaleUpcomingEndsDirectly(t *testing.T) {
	env := setupEnv(t)
	owner := env.createUser(t, "owner")
	now := time.Now().UTC()

	stale := env.createAuction(t, owner.ID, models.AuctionStatusUpcoming,
		now.Add(-2*time.Hour), now.Add(-time.Hour))

	if err := env.lifecycle.RunTick(context.Background(), now); err != nil {
		t.Fatalf("RunTick failed: %v", err)
	}

	if got := env.status(t, stale.ID); got != models.AuctionStatusEnded {
		t.Errorf("stale auction: expected ended, got %s", got)
	}
}

func TestRunTickIdempotent(t *testing.T) {
	env := setupEnv(t)
	owner := env.createUser(t, "owner")
	bidder := env.createUser(t, "bidder")
	now := time.Now().UTC()

	auction := env.createAuction(t, owner.ID, models.AuctionStatusActive,
		now.Add(-2*time.Hour), now.Add(-time.Minute))
	bid := &models.Bid{
		AuctionID: auction.ID,
		UserID:    bidder.ID,
		Amount:    decimal.NewFromInt(500),
		BidTime:   now.Add(-time.Hour),
	}
	if err := env.db.Create(bid).Error; err != nil {
		t.Fatalf("failed to create bid: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := env.lifecycle.RunTick(context.Background(), now); err != nil {
			t.Fatalf("RunTick pass %d failed: %v", i, err)
		}
	}

	if got := env.status(t, auction.ID); got != models.AuctionStatusEnded {
		t.Errorf("expected ended, got %s", got)
	}
	if n := env.pub.count(notify.EventAuctionWon); n != 1 {
		t.Errorf("expected exactly 1 winner event across repeated ticks, got %d", n)
	}
}

func TestStartStop(t *testing.T) {
	env := setupEnv(t)
	env.lifecycle.interval = 10 * time.Millisecond

	done := make(chan struct{})
	go func() {
		env.lifecycle.Start()
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	env.lifecycle.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lifecycle loop did not stop")
	}
}
