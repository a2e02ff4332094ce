package rules

import (
	"math"
	"sort"
	"strings"
)

const (
	MinScore = 0
	MaxScore = 100
)

// CompatibilityScore is the Jaccard similarity of two skill stacks scaled to 0..100.
// Tags are compared case-insensitively after trimming; blank tags are ignored.
func CompatibilityScore(a, b []string) int {
	left := normalizeStack(a)
	right := normalizeStack(b)
	if len(left) == 0 || len(right) == 0 {
		return MinScore
	}

	intersection := 0
	for tag := range left {
		if _, ok := right[tag]; ok {
			intersection++
		}
	}
	union := len(left) + len(right) - intersection
	if union == 0 {
		return MinScore
	}

	return int(math.Round(float64(MaxScore) * float64(intersection) / float64(union)))
}

type Scored[T any] struct {
	Item  T
	Score int
}

// RankByScore orders items by descending score. Items with equal scores keep their input order.
func RankByScore[T any](items []Scored[T]) []Scored[T] {
	ranked := append([]Scored[T](nil), items...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

func normalizeStack(stack []string) map[string]struct{} {
	set := make(map[string]struct{}, len(stack))
	for _, tag := range stack {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		set[tag] = struct{}{}
	}
	return set
}
