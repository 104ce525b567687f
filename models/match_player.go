package models

import (
	"encoding/json"
	"time"
)

// MatchPlayer is one participant of a live or finished match
type MatchPlayer struct {
	ID              int64           `db:"id" json:"id"`
	MatchID         int64           `db:"match_id" json:"matchId"`
	UserID          int64           `db:"user_id" json:"userId"`
	JoinedAt        time.Time       `db:"joined_at" json:"joinedAt"`
	LastHeartbeatAt *time.Time      `db:"last_heartbeat_at" json:"lastHeartbeatAt,omitempty"`
	LeftGame        bool            `db:"left_game" json:"leftGame"`
	LeftAt          *time.Time      `db:"left_at" json:"leftAt,omitempty"`
	Score           *int64          `db:"score" json:"score,omitempty"`
	ResultData      json.RawMessage `db:"result_data" json:"resultData,omitempty"`
	SubmittedAt     *time.Time      `db:"submitted_at" json:"submittedAt,omitempty"`
}

// HasSubmitted reports whether the player reported a result
func (p *MatchPlayer) HasSubmitted() bool {
	return p.SubmittedAt != nil
}

// ScoreOrZero treats a missing score as zero
func (p *MatchPlayer) ScoreOrZero() int64 {
	if p.Score == nil {
		return 0
	}
	return *p.Score
}

// FindPlayer returns the row for userID, or nil
func FindPlayer(players []*MatchPlayer, userID int64) *MatchPlayer {
	for _, p := range players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// FindOpponent returns the row of the other participant, or nil
func FindOpponent(players []*MatchPlayer, userID int64) *MatchPlayer {
	for _, p := range players {
		if p.UserID != userID {
			return p
		}
	}
	return nil
}
