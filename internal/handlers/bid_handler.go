package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/eugene953/TheraAid-Server/internal/aucterrors"
	"github.com/eugene953/TheraAid-Server/internal/auth"
	"github.com/eugene953/TheraAid-Server/internal/models"
	"github.com/eugene953/TheraAid-Server/internal/services"

	"github.com/gin-gonic/gin"
)

type BidHandler struct {
	bidService    *services.BidService
	winnerService *services.WinnerService
	bidTimeout    time.Duration
}

func NewBidHandler(bidService *services.BidService, winnerService *services.WinnerService, bidTimeout time.Duration) *BidHandler {
	return &BidHandler{
		bidService:    bidService,
		winnerService: winnerService,
		bidTimeout:    bidTimeout,
	}
}

// PlaceBid places a bid on an auction
// POST /api/bids
func (h *BidHandler) PlaceBid(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req models.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.bidTimeout)
	defer cancel()

	bid, err := h.bidService.PlaceBid(ctx, req.AuctionID, userID, req.Amount)
	if err != nil {
		respondBidError(c, err)
		return
	}

	c.JSON(http.StatusCreated, bid)
}

// GetBidsForAuction lists the bids of an auction, newest first
// GET /api/bids/auction/:id
func (h *BidHandler) GetBidsForAuction(c *gin.Context) {
	auctionID, ok := parseIDParam(c)
	if !ok {
		return
	}

	bids, err := h.bidService.GetBidsForAuction(c.Request.Context(), auctionID)
	if err != nil {
		if errors.Is(err, aucterrors.ErrAuctionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "auction not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch bids"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bids": bids})
}

// GetWinners lists the winner of every ended auction
// GET /api/winners
func (h *BidHandler) GetWinners(c *gin.Context) {
	winners, err := h.winnerService.GetAuctionWinners(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch auction winners"})
		return
	}

	c.JSON(http.StatusOK, winners)
}

// GetMyWins lists the auctions the caller has won
// GET /api/winners/me
func (h *BidHandler) GetMyWins(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	winners, err := h.winnerService.GetUserAuctionWinners(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch auction winners"})
		return
	}

	c.JSON(http.StatusOK, winners)
}

func respondBidError(c *gin.Context, err error) {
	var tooLow *aucterrors.BidTooLowError

	switch {
	case errors.As(err, &tooLow):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":       "Bid must be higher than the current bid",
			"current_bid": tooLow.Threshold,
		})
	case errors.Is(err, aucterrors.ErrBidTooLow), errors.Is(err, aucterrors.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, aucterrors.ErrSelfBid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot place a bid on your own auction"})
	case errors.Is(err, aucterrors.ErrAuctionClosed):
		c.JSON(http.StatusConflict, gin.H{"error": "Auction has ended"})
	case errors.Is(err, aucterrors.ErrAuctionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Auction not found"})
	case errors.Is(err, aucterrors.ErrUserNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Bid request timed out"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error placing bid"})
	}
}
