package dto

import "time"

// MatchProfileResponse is a matched partner's profile with the match metadata.
type MatchProfileResponse struct {
	ProfileResponse
	MatchID   int64     `json:"match_id"`
	MatchedAt time.Time `json:"matched_at"`
}
