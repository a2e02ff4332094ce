package model

import "time"

// Match is stored with UserAID < UserBID.
type Match struct {
	ID        int64     `json:"id"`
	UserAID   int64     `json:"user_a_id"`
	UserBID   int64     `json:"user_b_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (m Match) Has(userID int64) bool {
	return userID > 0 && (m.UserAID == userID || m.UserBID == userID)
}

// Partner returns the other participant, or 0 when userID is not part of the match.
func (m Match) Partner(userID int64) int64 {
	switch userID {
	case m.UserAID:
		return m.UserBID
	case m.UserBID:
		return m.UserAID
	default:
		return 0
	}
}

// OrderedPair returns the two ids in storage order.
func OrderedPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}
