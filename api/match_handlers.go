package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"stakeduel/auth"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type createMatchRequest struct {
	GameID int64           `json:"gameId" binding:"required"`
	Stake  decimal.Decimal `json:"stake"`
}

type submitResultRequest struct {
	Score    *int64          `json:"score" binding:"required"`
	GameData json.RawMessage `json:"gameData"`
}

func (s *Server) createMatch(c *gin.Context) {
	userID, ok := requireAccount(c)
	if !ok {
		return
	}

	var req createMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "gameId and stake are required"})
		return
	}

	match, err := s.services.Matches.Create(c.Request.Context(), userID, req.GameID, req.Stake)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"matchId":  match.ID,
		"shareRef": match.ShareRef,
		"match":    match,
	})
}

func (s *Server) listOpenMatches(c *gin.Context) {
	userID, ok := requireAccount(c)
	if !ok {
		return
	}

	var gameID *int64
	if raw := c.Query("gameId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "gameId must be an integer"})
			return
		}
		gameID = &id
	}
	var stake *decimal.Decimal
	if raw := c.Query("stake"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "stake must be a number"})
			return
		}
		stake = &amount
	}

	matches, err := s.services.Matches.ListOpen(c.Request.Context(), userID, gameID, stake)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

func (s *Server) getMatchByShareRef(c *gin.Context) {
	summary, err := s.services.Matches.GetByShareRef(c.Request.Context(), c.Param("ref"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) getMatch(c *gin.Context) {
	userID, matchID, ok := matchParams(c)
	if !ok {
		return
	}

	detail, err := s.services.Matches.Get(c.Request.Context(), matchID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) requestJoin(c *gin.Context) {
	userID, matchID, ok := matchParams(c)
	if !ok {
		return
	}

	request, err := s.services.Matches.RequestJoin(c.Request.Context(), matchID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requestId": request.ID, "status": request.Status})
}

func (s *Server) acceptJoinRequest(c *gin.Context) {
	userID, matchID, ok := matchParams(c)
	if !ok {
		return
	}
	requestID, ok := idParam(c, "requestId")
	if !ok {
		return
	}

	countdownStartedAt, err := s.services.Matches.Accept(c.Request.Context(), matchID, userID, requestID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"countdownStartedAt": countdownStartedAt})
}

func (s *Server) rejectJoinRequest(c *gin.Context) {
	userID, matchID, ok := matchParams(c)
	if !ok {
		return
	}
	requestID, ok := idParam(c, "requestId")
	if !ok {
		return
	}

	if err := s.services.Matches.Reject(c.Request.Context(), matchID, userID, requestID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}

func (s *Server) cancelMatch(c *gin.Context) {
	userID, matchID, ok := matchParams(c)
	if !ok {
		return
	}

	if err := s.services.Matches.Cancel(c.Request.Context(), matchID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

func (s *Server) startMatch(c *gin.Context) {
	userID, matchID, ok := matchParams(c)
	if !ok {
		return
	}

	match, err := s.services.Matches.Start(c.Request.Context(), matchID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, match)
}

func (s *Server) submitResult(c *gin.Context) {
	userID, matchID, ok := matchParams(c)
	if !ok {
		return
	}

	var req submitResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "score is required"})
		return
	}

	outcome, err := s.services.Results.SubmitResult(c.Request.Context(), matchID, userID, *req.Score, req.GameData)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (s *Server) forfeit(c *gin.Context) {
	userID, matchID, ok := matchParams(c)
	if !ok {
		return
	}

	outcome, err := s.services.Presence.Forfeit(c.Request.Context(), matchID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (s *Server) heartbeat(c *gin.Context) {
	userID, matchID, ok := matchParams(c)
	if !ok {
		return
	}

	if err := s.services.Presence.Heartbeat(c.Request.Context(), matchID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) opponentStatus(c *gin.Context) {
	userID, matchID, ok := matchParams(c)
	if !ok {
		return
	}

	status, err := s.services.Presence.OpponentStatus(c.Request.Context(), matchID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func requireAccount(c *gin.Context) (int64, bool) {
	userID, ok := auth.GetAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "user not authenticated"})
	}
	return userID, ok
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}

func matchParams(c *gin.Context) (userID, matchID int64, ok bool) {
	if userID, ok = requireAccount(c); !ok {
		return 0, 0, false
	}
	if matchID, ok = idParam(c, "id"); !ok {
		return 0, 0, false
	}
	return userID, matchID, true
}
