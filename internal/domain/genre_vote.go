package domain

import "time"

// GenreRelevanceVote is one account's opinion of how significant a genre is.
// There is at most one vote per (GenreID, AccountID); no row means no opinion.
type GenreRelevanceVote struct {
	GenreID   string    `json:"genre_id"`
	AccountID string    `json:"account_id"`
	Relevance int       `json:"relevance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidRelevance reports whether r is an acceptable vote value.
// RelevanceUnset is a retraction marker, never a vote.
func ValidRelevance(r int) bool {
	return r >= MinRelevance && r <= MaxRelevance
}
