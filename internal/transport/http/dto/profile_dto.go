package dto

import (
	"github.com/ivankudzin/commitdating/internal/domain/model"
)

type ProfileResponse struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Bio         string   `json:"bio"`
	Stack       []string `json:"stack"`
	Image       string   `json:"image"`
	LocationLat float64  `json:"location_lat"`
	LocationLng float64  `json:"location_lng"`
	MatchScore  int      `json:"match_score"`
}

type UpdateProfileRequest struct {
	Name  *string  `json:"name"`
	Role  *string  `json:"role"`
	Bio   *string  `json:"bio"`
	Stack []string `json:"stack"`
	Image *string  `json:"image"`
}

func (r UpdateProfileRequest) Patch() model.ProfilePatch {
	return model.ProfilePatch{
		Name:  r.Name,
		Role:  r.Role,
		Bio:   r.Bio,
		Stack: r.Stack,
		Image: r.Image,
	}
}

func NewProfileResponse(u model.User, score int) ProfileResponse {
	stack := u.Stack
	if stack == nil {
		stack = []string{}
	}
	return ProfileResponse{
		ID:          u.ID,
		Name:        u.Name,
		Role:        u.Role,
		Bio:         u.Bio,
		Stack:       stack,
		Image:       u.Image,
		LocationLat: u.LocationLat,
		LocationLng: u.LocationLng,
		MatchScore:  score,
	}
}
