package dto

type ActionRequest struct {
	TargetID   int64  `json:"target_id"`
	ActionType string `json:"action_type"`
}

type ActionResponse struct {
	Success bool `json:"success"`
	Match   bool `json:"match"`
}
