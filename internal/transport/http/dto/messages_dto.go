package dto

import "time"

// SendMessageRequest addresses the partner by partner_id. match_id is the legacy
// field name and also carries the partner's user id.
type SendMessageRequest struct {
	PartnerID int64  `json:"partner_id"`
	MatchID   int64  `json:"match_id"`
	Text      string `json:"text"`
}

func (r SendMessageRequest) Recipient() int64 {
	if r.PartnerID > 0 {
		return r.PartnerID
	}
	return r.MatchID
}

type SendMessageResponse struct {
	Success bool `json:"success"`
}

type ConversationMessageResponse struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	IsRead    bool      `json:"is_read"`
}
