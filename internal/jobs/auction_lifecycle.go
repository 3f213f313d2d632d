package jobs

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/eugene953/TheraAid-Server/internal/repository"
	"github.com/eugene953/TheraAid-Server/internal/services"
)

// AuctionLifecycle periodically transitions auctions through their
// states and triggers winner resolution for auctions that just ended.
type AuctionLifecycle struct {
	repo     *repository.Repository
	winners  *services.WinnerService
	interval time.Duration
	stopChan chan struct{}

	// ticking prevents overlapping ticks: if a tick is still running
	// when the next fires, the new one is skipped.
	ticking sync.Mutex
}

// NewAuctionLifecycle creates the lifecycle job. The interval is
// expected to be within [1s, 60s]; each tick runs with a timeout
// shorter than the interval.
func NewAuctionLifecycle(repo *repository.Repository, winners *services.WinnerService, interval time.Duration) *AuctionLifecycle {
	return &AuctionLifecycle{
		repo:     repo,
		winners:  winners,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the lifecycle loop. Blocks until Stop is called; run it
// in a goroutine.
func (j *AuctionLifecycle) Start() {
	log.Printf("[AuctionLifecycle] Starting lifecycle job (interval: %v)", j.interval)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.tick()
		case <-j.stopChan:
			log.Println("[AuctionLifecycle] Stopping lifecycle job")
			return
		}
	}
}

// Stop stops the lifecycle loop
func (j *AuctionLifecycle) Stop() {
	close(j.stopChan)
}

func (j *AuctionLifecycle) tick() {
	if !j.ticking.TryLock() {
		log.Println("[AuctionLifecycle] Previous tick still running, skipping")
		return
	}
	defer j.ticking.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), j.tickTimeout())
	defer cancel()

	if err := j.RunTick(ctx, time.Now().UTC()); err != nil {
		// Never fatal: the next tick's idempotent queries catch
		// whatever this one missed.
		log.Printf("[AuctionLifecycle] Tick failed: %v", err)
	}
}

// RunTick executes one lifecycle pass: activate due auctions, end
// expired ones, resolve winners for the newly ended set. Idempotent;
// running it twice with no elapsed time mutates nothing further and
// emits no duplicate events.
func (j *AuctionLifecycle) RunTick(ctx context.Context, now time.Time) error {
	activated, err := j.repo.ActivateDueAuctions(ctx, now)
	if err != nil {
		return err
	}
	if activated > 0 {
		log.Printf("[AuctionLifecycle] Activated %d auctions", activated)
	}

	ended, err := j.repo.EndExpiredAuctions(ctx, now)
	if err != nil {
		return err
	}
	if len(ended) == 0 {
		return nil
	}

	log.Printf("[AuctionLifecycle] Ended %d auctions: %v", len(ended), ended)

	winners, err := j.winners.ResolveWinners(ctx, ended)
	if err != nil {
		return err
	}
	if len(winners) > 0 {
		log.Printf("[AuctionLifecycle] Announced %d winners", len(winners))
	}

	return nil
}

func (j *AuctionLifecycle) tickTimeout() time.Duration {
	// 80% of the interval keeps a tick from bleeding into the next.
	return j.interval * 4 / 5
}
