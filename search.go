package neighbour

import (
	"context"
	"fmt"

	"github.com/hupe1980/neighbour/dataset"
	"github.com/hupe1980/neighbour/loader"
)

// ProfileBaseURL prefixes every horse_id in a match URL.
const ProfileBaseURL = "https://photofinish.live/horses/"

// ProfileURL returns the external profile link of a horse.
func ProfileURL(horseID string) string {
	return ProfileBaseURL + horseID
}

// Match is one ranked neighbour.
type Match struct {
	// Rank is 1-based, in index output order.
	Rank     int     `json:"rank"`
	Name     string  `json:"name"`
	HorseID  string  `json:"horse_id"`
	URL      string  `json:"url"`
	Distance float32 `json:"distance"`

	// Score is Distance formatted to three decimal places.
	Score string `json:"score"`
}

// Result is the outcome of a successful lookup.
type Result struct {
	// Searched is the record the name resolved to.
	Searched dataset.Record `json:"searched"`

	// DuplicateCount is the number of records carrying the searched name.
	DuplicateCount int `json:"duplicate_count"`

	Matches []Match `json:"matches"`
}

// FindMatches resolves name to a record and returns the k records whose
// embeddings are nearest to it, nearest first.
func FindMatches(ctx context.Context, name string, a *loader.Artifacts, k int) (*Result, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if a == nil || a.Dataset == nil || a.Embeddings == nil || a.Index == nil {
		return nil, ErrUnavailable
	}

	rec, count, ok := a.Dataset.LookupName(name)
	if !ok {
		return nil, &NotFoundError{Name: name}
	}

	// The record's own position is not trusted; the vector is found by id.
	if _, ok := a.Dataset.PositionOf(rec.HorseID); !ok {
		return nil, &EmbeddingNotFoundError{Name: name, HorseID: rec.HorseID}
	}
	vec, ok := a.Embeddings.Vector(rec.HorseID)
	if !ok {
		return nil, &EmbeddingNotFoundError{Name: name, HorseID: rec.HorseID}
	}

	neighbors, err := a.Index.Search(ctx, vec, k)
	if err != nil {
		return nil, translateError(err)
	}

	matches := make([]Match, 0, len(neighbors))
	for _, n := range neighbors {
		r, ok := a.Dataset.At(n.Position)
		if !ok {
			return nil, fmt.Errorf("%w: position %d, %d records", ErrIndexOutOfRange, n.Position, a.Dataset.Len())
		}
		matches = append(matches, Match{
			Rank:     len(matches) + 1,
			Name:     r.HorseName,
			HorseID:  r.HorseID,
			URL:      ProfileURL(r.HorseID),
			Distance: n.Distance,
			Score:    fmt.Sprintf("%.3f", n.Distance),
		})
	}

	return &Result{
		Searched:       rec,
		DuplicateCount: count,
		Matches:        matches,
	}, nil
}
