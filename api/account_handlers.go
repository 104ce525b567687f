package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (s *Server) getBalance(c *gin.Context) {
	userID, ok := requireAccount(c)
	if !ok {
		return
	}

	account, err := s.services.Accounts.GetAccount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accountId": account.ID,
		"balance":   account.Balance,
	})
}

func (s *Server) listTransactions(c *gin.Context) {
	userID, ok := requireAccount(c)
	if !ok {
		return
	}

	limit := queryInt(c, "limit", 50, 1, 200)
	offset := queryInt(c, "offset", 0, 0, 1<<31-1)

	entries, err := s.services.Accounts.ListTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": entries})
}

func (s *Server) listMyMatches(c *gin.Context) {
	userID, ok := requireAccount(c)
	if !ok {
		return
	}

	matches, err := s.services.Matches.ListForUser(c.Request.Context(), userID, queryInt(c, "limit", 20, 1, 100))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

func (s *Server) listGames(c *gin.Context) {
	games, err := s.services.Games.ListGames(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}

// queryInt reads an integer query parameter clamped to [lo, hi]
func queryInt(c *gin.Context, name string, def, lo, hi int) int {
	v, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
