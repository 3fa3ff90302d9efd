// Package counters holds the pure arithmetic behind the denormalized
// per-movie engagement counters. Storage of the deltas lives in repo.
package counters

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Counter string

const (
	Likes     Counter = "likes"
	Favorites Counter = "favorites"
	Comments  Counter = "comments"
	Ratings   Counter = "ratings"
)

var columns = map[Counter]string{
	Likes:     "like_count",
	Favorites: "favorite_count",
	Comments:  "comment_count",
	Ratings:   "rating_count",
}

// Column maps a counter name to its movies column. Only the closed set above
// is accepted so the result is safe to splice into SQL.
func (c Counter) Column() (string, error) {
	col, ok := columns[c]
	if !ok {
		return "", fmt.Errorf("unknown counter %q", string(c))
	}
	return col, nil
}

type Reaction int

const (
	ReactionNone Reaction = iota
	ReactionLike
	ReactionDislike
)

func (r Reaction) String() string {
	switch r {
	case ReactionLike:
		return "like"
	case ReactionDislike:
		return "dislike"
	default:
		return "none"
	}
}

// ReactionFromLike converts a stored is_like flag.
func ReactionFromLike(isLike bool) Reaction {
	if isLike {
		return ReactionLike
	}
	return ReactionDislike
}

// LikeDelta is the like_count change for moving a user's reaction from -> to.
// Only likes are counted, so every transition is one of -1, 0, +1.
func LikeDelta(from, to Reaction) int64 {
	var d int64
	if from == ReactionLike {
		d--
	}
	if to == ReactionLike {
		d++
	}
	return d
}

// RatingStats is the (count, average) pair kept on a movie.
type RatingStats struct {
	Count   int64
	Average float64
}

// NextRatingStats applies one rating insert (old == nil), update or delete
// (next == nil) to stats. The running sum is recovered from the rounded
// average, which is exact for integer ratings while count < 100.
func NextRatingStats(cur RatingStats, old, next *int) RatingStats {
	if cur.Count < 0 {
		cur.Count = 0
	}
	sum := decimal.NewFromFloat(cur.Average).Mul(decimal.NewFromInt(cur.Count)).Round(0)

	switch {
	case old == nil && next == nil:
		return cur
	case old == nil:
		count := cur.Count + 1
		return RatingStats{Count: count, Average: average(sum.Add(decimal.NewFromInt(int64(*next))), count)}
	case next == nil:
		if cur.Count <= 1 {
			return RatingStats{}
		}
		count := cur.Count - 1
		return RatingStats{Count: count, Average: average(sum.Sub(decimal.NewFromInt(int64(*old))), count)}
	default:
		if cur.Count == 0 {
			// an update with no recorded ratings behaves like an insert
			return RatingStats{Count: 1, Average: average(decimal.NewFromInt(int64(*next)), 1)}
		}
		sum = sum.Sub(decimal.NewFromInt(int64(*old))).Add(decimal.NewFromInt(int64(*next)))
		return RatingStats{Count: cur.Count, Average: average(sum, cur.Count)}
	}
}

func average(sum decimal.Decimal, count int64) float64 {
	if count <= 0 {
		return 0
	}
	return sum.Div(decimal.NewFromInt(count)).Round(2).InexactFloat64()
}
