package dto

type NotificationsResponse struct {
	UnreadCount int `json:"unread_count"`
}

type HealthResponse struct {
	OK           bool `json:"ok"`
	LiveSessions int  `json:"live_sessions"`
}
