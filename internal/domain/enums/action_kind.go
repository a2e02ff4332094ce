package enums

import "strings"

type ActionKind string

const (
	ActionLike ActionKind = "like"
	ActionPass ActionKind = "pass"
)

func ParseActionKind(raw string) (ActionKind, bool) {
	kind := ActionKind(strings.ToLower(strings.TrimSpace(raw)))
	switch kind {
	case ActionLike, ActionPass:
		return kind, true
	default:
		return "", false
	}
}
