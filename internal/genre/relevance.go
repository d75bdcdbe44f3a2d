package genre

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/genrewiki/genrewiki-server/internal/domain"
)

var two = decimal.NewFromInt(2)

// Median returns the median of values. An even count averages the two
// middle values. The result is exact; callers decide how to round.
func Median(values []int) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return decimal.NewFromInt(int64(sorted[mid]))
	}
	sum := decimal.NewFromInt(int64(sorted[mid-1] + sorted[mid]))
	return sum.Div(two)
}

// Consensus turns individual relevance votes into the canonical score: the
// median rounded half up, or domain.RelevanceUnset when nobody has voted.
func Consensus(values []int) int {
	if len(values) == 0 {
		return domain.RelevanceUnset
	}
	// Votes are non-negative, so rounding half away from zero is half up.
	return int(Median(values).Round(0).IntPart())
}

// ConsensusOf computes Consensus over stored votes.
func ConsensusOf(votes []*domain.GenreRelevanceVote) int {
	values := make([]int, len(votes))
	for i, v := range votes {
		values[i] = v.Relevance
	}
	return Consensus(values)
}
