package models

import (
	"time"
)

// Match status values
const (
	StatusWaiting  = "waiting"
	StatusPlaying  = "playing"
	StatusFinished = "finished"
)

// PlayerSlot is one player's position inside a match.
type PlayerSlot struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Score       int    `json:"score"`
	HasAnswered bool   `json:"hasAnswered"`
}

// Match is one quiz session between two players, keyed by its room code.
// Slot 2 is nil until an opponent joins.
type Match struct {
	MatchID              string      `json:"matchId"`
	Status               string      `json:"status"`
	Player1              *PlayerSlot `json:"player1,omitempty"`
	Player2              *PlayerSlot `json:"player2,omitempty"`
	CurrentQuestionIndex int         `json:"currentQuestionIndex"`
	CreatedAt            time.Time   `json:"createdAt"`
}

// NewMatch builds the initial document for a freshly created match: the
// creator occupies slot 1, slot 2 is empty, no rounds played yet.
// CreatedAt is left zero; the store assigns it when the document is claimed.
func NewMatch(code, playerID, email string) *Match {
	return &Match{
		MatchID: code,
		Status:  StatusWaiting,
		Player1: &PlayerSlot{
			ID:    playerID,
			Email: email,
		},
		CurrentQuestionIndex: 0,
	}
}

// SlotNumber reports which slot the given player occupies, or 0 if they are
// not part of this match.
func (m *Match) SlotNumber(playerID string) int {
	if m.Player1 != nil && m.Player1.ID == playerID {
		return 1
	}
	if m.Player2 != nil && m.Player2.ID == playerID {
		return 2
	}
	return 0
}

// BothAnswered reports whether both slots are occupied and have submitted
// for the current round.
func (m *Match) BothAnswered() bool {
	return m.Player1 != nil && m.Player2 != nil &&
		m.Player1.HasAnswered && m.Player2.HasAnswered
}

type JoinReq struct {
	MatchID string `json:"matchId"`
}

type AnswerReq struct {
	MatchID string `json:"matchId"`
	// OptionIndex is the chosen option, or -1 when the answer window elapsed
	// and the client submits a forced wrong answer.
	OptionIndex int `json:"optionIndex"`
}

type Resp struct {
	OK   bool        `json:"ok"`
	Info interface{} `json:"info"`
}
