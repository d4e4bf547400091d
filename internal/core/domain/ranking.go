package domain

import (
	"fmt"
	"strings"
)

// RecentVotesCap bounds how many of the latest votes each country ranking
// keeps, most recent first.
const RecentVotesCap = 5

// CountryRanking aggregates the finalized votes of one country.
type CountryRanking struct {
	Code        string       `json:"code"`
	TotalCount  int64        `json:"total_count"`
	RecentVotes []PublicVote `json:"recent_votes"`
}

// GlobalStats is a point-in-time snapshot across all countries, ordered by
// total count descending. Countries with equal counts keep the order in
// which they first appeared.
type GlobalStats struct {
	TotalVotes int64            `json:"total_votes"`
	Countries  []CountryRanking `json:"countries"`
}

// NormalizeCountry uppercases a submitted nationality and checks it is a
// plausible two-letter country code. It does not verify the code against
// the ISO table; unknown but well-formed codes simply rank as their own
// country.
func NormalizeCountry(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if len(c) != 2 || c[0] < 'A' || c[0] > 'Z' || c[1] < 'A' || c[1] > 'Z' {
		return "", fmt.Errorf("nationality must be a two-letter country code: %w", ErrNotAcceptable)
	}
	return c, nil
}
