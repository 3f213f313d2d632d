package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/eugene953/TheraAid-Server/internal/aucterrors"
	"github.com/eugene953/TheraAid-Server/internal/auth"
	"github.com/eugene953/TheraAid-Server/internal/models"
	"github.com/eugene953/TheraAid-Server/internal/services"

	"github.com/gin-gonic/gin"
)

type AuctionHandler struct {
	auctionService *services.AuctionService
	winnerService  *services.WinnerService
}

func NewAuctionHandler(auctionService *services.AuctionService, winnerService *services.WinnerService) *AuctionHandler {
	return &AuctionHandler{
		auctionService: auctionService,
		winnerService:  winnerService,
	}
}

// CreateAuction creates a new auction owned by the caller
// POST /api/auctions
func (h *AuctionHandler) CreateAuction(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req models.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	auction, err := h.auctionService.CreateAuction(c.Request.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, aucterrors.ErrInvalidAuction) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create auction"})
		return
	}

	c.JSON(http.StatusCreated, auction)
}

// GetAuctions lists all auctions
// GET /api/auctions
func (h *AuctionHandler) GetAuctions(c *gin.Context) {
	auctions, err := h.auctionService.GetAuctions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch auctions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"auctions": auctions})
}

// GetAuctionByID fetches one auction
// GET /api/auctions/:id
func (h *AuctionHandler) GetAuctionByID(c *gin.Context) {
	auctionID, ok := parseIDParam(c)
	if !ok {
		return
	}

	auction, err := h.auctionService.GetAuctionByID(c.Request.Context(), auctionID)
	if err != nil {
		if errors.Is(err, aucterrors.ErrAuctionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "auction not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch auction"})
		return
	}

	c.JSON(http.StatusOK, auction)
}

// GetMyAuctions lists auctions owned by the caller
// GET /api/auctions/mine
func (h *AuctionHandler) GetMyAuctions(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	auctions, err := h.auctionService.GetUserAuctions(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch auctions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"auctions": auctions})
}

// UpdateAuction updates auction details (owner only)
// PUT /api/auctions/:id
func (h *AuctionHandler) UpdateAuction(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	auctionID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req models.UpdateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	auction, err := h.auctionService.UpdateAuction(c.Request.Context(), auctionID, userID, &req)
	if err != nil {
		respondAuctionError(c, err)
		return
	}

	c.JSON(http.StatusOK, auction)
}

// DeleteAuction removes an auction and its bids (owner only)
// DELETE /api/auctions/:id
func (h *AuctionHandler) DeleteAuction(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	auctionID, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.auctionService.DeleteAuction(c.Request.Context(), auctionID, userID); err != nil {
		respondAuctionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Auction deleted successfully"})
}

// RepostAuction relists an ended auction with new dates (owner only)
// POST /api/auctions/:id/repost
func (h *AuctionHandler) RepostAuction(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	auctionID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req models.RepostAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	auction, err := h.auctionService.RepostAuction(c.Request.Context(), auctionID, userID, &req)
	if err != nil {
		respondAuctionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Auction reposted successfully",
		"auction": auction,
	})
}

// GetAuctionWinner returns the winner of an ended auction
// GET /api/auctions/:id/winner
func (h *AuctionHandler) GetAuctionWinner(c *gin.Context) {
	auctionID, ok := parseIDParam(c)
	if !ok {
		return
	}

	winner, err := h.winnerService.GetAuctionWinner(c.Request.Context(), auctionID)
	if err != nil {
		switch {
		case errors.Is(err, aucterrors.ErrAuctionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "auction not found"})
		case errors.Is(err, aucterrors.ErrNotEnded):
			c.JSON(http.StatusBadRequest, gin.H{"error": "auction has not ended"})
		case errors.Is(err, aucterrors.ErrNoBids):
			c.JSON(http.StatusNotFound, gin.H{"error": "auction received no bids"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch winner"})
		}
		return
	}

	c.JSON(http.StatusOK, winner)
}

func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid auction id"})
		return 0, false
	}
	return uint(id), true
}

func respondAuctionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, aucterrors.ErrAuctionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "auction not found"})
	case errors.Is(err, aucterrors.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not authorized to modify this auction"})
	case errors.Is(err, aucterrors.ErrNotEnded):
		c.JSON(http.StatusBadRequest, gin.H{"error": "only ended auctions can be reposted"})
	case errors.Is(err, aucterrors.ErrInvalidAuction):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
