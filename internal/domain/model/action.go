package model

import (
	"time"

	"github.com/ivankudzin/commitdating/internal/domain/enums"
)

type Action struct {
	ID        int64            `json:"id"`
	ActorID   int64            `json:"actor_id"`
	TargetID  int64            `json:"target_id"`
	Kind      enums.ActionKind `json:"kind"`
	CreatedAt time.Time        `json:"created_at"`
}
