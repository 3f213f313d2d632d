package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eugene953/TheraAid-Server/internal/database"
	"github.com/eugene953/TheraAid-Server/internal/models"
	"github.com/eugene953/TheraAid-Server/internal/notify"
	"github.com/eugene953/TheraAid-Server/internal/repository"
	"github.com/eugene953/TheraAid-Server/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupBidRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	gin.SetMode(gin.TestMode)

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
	bidService := services.NewBidService(db, repo, notify.NopPublisher{})
	winnerService := services.NewWinnerService(db, repo, notify.NopPublisher{})
	handler := NewBidHandler(bidService, winnerService, 5*time.Second)

	router := gin.New()
	// Stand-in for the auth middleware: the bidder id comes from the
	// X-Test-User header.
	router.Use(func(c *gin.Context) {
		var userID uint
		if _, err := fmt.Sscanf(c.GetHeader("X-Test-User"), "%d", &userID); err == nil {
			c.Set("user_id", userID)
		}
		c.Next()
	})
	router.POST("/api/bids", handler.PlaceBid)
	router.GET("/api/bids/auction/:id", handler.GetBidsForAuction)

	return router, db
}

func placeBid(t *testing.T, router *gin.Engine, userID uint, auctionID uint, amount int64) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(models.PlaceBidRequest{
		AuctionID: auctionID,
		Amount:    decimal.NewFromInt(amount),
	})
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/bids", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", fmt.Sprintf("%d", userID))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func seedHandlerUser(t *testing.T, db *gorm.DB, username string) *models.User {
	user := &models.User{Username: username, Email: username + "@example.com", PasswordHash: "x"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func TestPlaceBidEndpoint(t *testing.T) {
	router, db := setupBidRouter(t)

	owner := seedHandlerUser(t, db, "owner")
	bidder := seedHandlerUser(t, db, "bidder")
	now := time.Now().UTC()
	auction := &models.Auction{
		Title:     "Lamp",
		StartBid:  decimal.NewFromInt(1000),
		StartDate: now.Add(-time.Hour),
		EndDate:   now.Add(time.Hour),
		UserID:    owner.ID,
		Status:    models.AuctionStatusActive,
	}
	if err := db.Create(auction).Error; err != nil {
		t.Fatalf("failed to create auction: %v", err)
	}

	// Too low: 400 with the current threshold in the body.
	rec := placeBid(t, router, bidder.ID, auction.ID, 1000)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bid at threshold, got %d: %s", rec.Code, rec.Body)
	}
	var errResp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if _, ok := errResp["current_bid"]; !ok {
		t.Errorf("expected current_bid in rejection body, got %v", errResp)
	}

	// Valid bid: 201.
	rec = placeBid(t, router, bidder.ID, auction.ID, 1001)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for valid bid, got %d: %s", rec.Code, rec.Body)
	}

	// Self bid: 400.
	rec = placeBid(t, router, owner.ID, auction.ID, 2000)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for self bid, got %d", rec.Code)
	}

	// Unknown auction: 404.
	rec = placeBid(t, router, bidder.ID, 9999, 2000)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown auction, got %d", rec.Code)
	}

	// No authenticated user: 401.
	body, _ := json.Marshal(models.PlaceBidRequest{AuctionID: auction.ID, Amount: decimal.NewFromInt(2000)})
	req := httptest.NewRequest(http.MethodPost, "/api/bids", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	anon := httptest.NewRecorder()
	router.ServeHTTP(anon, req)
	if anon.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without auth, got %d", anon.Code)
	}
}

func TestPlaceBidEndpointClosedAuction(t *testing.T) {
	router, db := setupBidRouter(t)

	owner := seedHandlerUser(t, db, "owner")
	bidder := seedHandlerUser(t, db, "bidder")
	now := time.Now().UTC()
	auction := &models.Auction{
		Title:     "Over",
		StartBid:  decimal.NewFromInt(100),
		StartDate: now.Add(-2 * time.Hour),
		EndDate:   now.Add(-time.Hour),
		UserID:    owner.ID,
		Status:    models.AuctionStatusEnded,
	}
	if err := db.Create(auction).Error; err != nil {
		t.Fatalf("failed to create auction: %v", err)
	}

	rec := placeBid(t, router, bidder.ID, auction.ID, 5000)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for ended auction, got %d: %s", rec.Code, rec.Body)
	}
}

func TestGetBidsForAuctionEndpoint(t *testing.T) {
	router, db := setupBidRouter(t)

	owner := seedHandlerUser(t, db, "owner")
	bidder := seedHandlerUser(t, db, "bidder")
	now := time.Now().UTC()
	auction := &models.Auction{
		Title:     "Lamp",
		StartBid:  decimal.NewFromInt(100),
		StartDate: now.Add(-time.Hour),
		EndDate:   now.Add(time.Hour),
		UserID:    owner.ID,
		Status:    models.AuctionStatusActive,
	}
	if err := db.Create(auction).Error; err != nil {
		t.Fatalf("failed to create auction: %v", err)
	}
	for i := 0; i < 3; i++ {
		bid := &models.Bid{
			AuctionID: auction.ID,
			UserID:    bidder.ID,
			Amount:    decimal.NewFromInt(int64(200 + i)),
			BidTime:   now.Add(time.Duration(i) * time.Minute),
		}
		if err := db.Create(bid).Error; err != nil {
			t.Fatalf("failed to create bid: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/bids/auction/%d", auction.ID), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var resp struct {
		Bids []models.Bid `json:"bids"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(resp.Bids) != 3 {
		t.Errorf("expected 3 bids, got %d", len(resp.Bids))
	}

	// Unknown auction: 404.
	req = httptest.NewRequest(http.MethodGet, "/api/bids/auction/9999", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown auction, got %d", rec.Code)
	}
}
