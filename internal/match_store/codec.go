package match_store

import (
	"fmt"
	"strconv"
	"time"

	"quizduel/internal/models"
)

// Hash field paths of the match document. Nested player fields use dotted
// paths so each one is an independently replaceable unit.
const (
	FieldStatus        = "status"
	FieldQuestionIndex = "currentQuestionIndex"
	FieldCreatedAt     = "createdAt"

	FieldPlayer1ID       = "player1.id"
	FieldPlayer1Email    = "player1.email"
	FieldPlayer1Score    = "player1.score"
	FieldPlayer1Answered = "player1.hasAnswered"

	FieldPlayer2ID       = "player2.id"
	FieldPlayer2Email    = "player2.email"
	FieldPlayer2Score    = "player2.score"
	FieldPlayer2Answered = "player2.hasAnswered"
)

// PlayerAnsweredField returns the hasAnswered field path for slot 1 or 2.
func PlayerAnsweredField(slot int) string {
	if slot == 1 {
		return FieldPlayer1Answered
	}
	return FieldPlayer2Answered
}

// PlayerScoreField returns the score field path for slot 1 or 2.
func PlayerScoreField(slot int) string {
	if slot == 1 {
		return FieldPlayer1Score
	}
	return FieldPlayer2Score
}

func encodeMatch(m *models.Match) map[string]any {
	fields := map[string]any{
		FieldStatus:        m.Status,
		FieldQuestionIndex: m.CurrentQuestionIndex,
		FieldCreatedAt:     m.CreatedAt.Format(time.RFC3339Nano),
	}
	if m.Player1 != nil {
		fields[FieldPlayer1ID] = m.Player1.ID
		fields[FieldPlayer1Email] = m.Player1.Email
		fields[FieldPlayer1Score] = m.Player1.Score
		fields[FieldPlayer1Answered] = m.Player1.HasAnswered
	}
	if m.Player2 != nil {
		fields[FieldPlayer2ID] = m.Player2.ID
		fields[FieldPlayer2Email] = m.Player2.Email
		fields[FieldPlayer2Score] = m.Player2.Score
		fields[FieldPlayer2Answered] = m.Player2.HasAnswered
	}
	return fields
}

func encodeValue(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case time.Time:
		return t.Format(time.RFC3339Nano), nil
	default:
		return "", fmt.Errorf("unsupported field value type %T", v)
	}
}

func decodeMatch(code string, fields map[string]string) (*models.Match, error) {
	status, ok := fields[FieldStatus]
	if !ok {
		return nil, fmt.Errorf("match %s: missing status field", code)
	}

	m := &models.Match{
		MatchID: code,
		Status:  status,
	}
	if raw, ok := fields[FieldQuestionIndex]; ok {
		idx, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("match %s: bad question index %q", code, raw)
		}
		m.CurrentQuestionIndex = idx
	}
	if raw, ok := fields[FieldCreatedAt]; ok {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			m.CreatedAt = ts
		}
	}

	var err error
	if m.Player1, err = decodeSlot(fields, FieldPlayer1ID, FieldPlayer1Email, FieldPlayer1Score, FieldPlayer1Answered); err != nil {
		return nil, fmt.Errorf("match %s: %w", code, err)
	}
	if m.Player2, err = decodeSlot(fields, FieldPlayer2ID, FieldPlayer2Email, FieldPlayer2Score, FieldPlayer2Answered); err != nil {
		return nil, fmt.Errorf("match %s: %w", code, err)
	}
	return m, nil
}

// decodeSlot returns nil when the slot's id field is absent; absence encodes
// "no player here yet".
func decodeSlot(fields map[string]string, idField, emailField, scoreField, answeredField string) (*models.PlayerSlot, error) {
	id, ok := fields[idField]
	if !ok {
		return nil, nil
	}

	slot := &models.PlayerSlot{
		ID:    id,
		Email: fields[emailField],
	}
	if raw, ok := fields[scoreField]; ok {
		score, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("bad score %q for %s", raw, idField)
		}
		slot.Score = score
	}
	if raw, ok := fields[answeredField]; ok {
		answered, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("bad hasAnswered %q for %s", raw, idField)
		}
		slot.HasAnswered = answered
	}
	return slot, nil
}
