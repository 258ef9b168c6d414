package domain

import (
	"slices"
	"strings"
)

const (
	// Scoring weights
	ScoreExactMatch     = 100.0
	ScorePrefixMatch    = 75.0
	ScoreSubstringMatch = 50.0
	ScoreFuzzyMatch     = 25.0

	// Position bonus (earlier is better)
	ScorePositionBonus = 10.0

	// Exact text match bonus
	ScoreExactTextBonus = 200.0

	// Minimum character similarity for a fuzzy hit
	minSimilarity = 0.5
)

// BookmarkCandidate represents a bookmark candidate with its match score
type BookmarkCandidate struct {
	Bookmark Bookmark
	Score    float64
}

// ScoreBookmark calculates the match score for a bookmark against a query string
func ScoreBookmark(queryStr string, bookmark Bookmark) float64 {
	queryStr = strings.ToLower(strings.TrimSpace(queryStr))
	if queryStr == "" {
		return 0.0
	}
	text := strings.ToLower(bookmark.Text)

	// Exact match (highest score)
	if queryStr == text {
		return ScoreExactMatch + ScoreExactTextBonus
	}

	// Prefix match
	if strings.HasPrefix(text, queryStr) {
		return ScorePrefixMatch
	}

	// Substring match, earlier is better
	if index := strings.Index(text, queryStr); index >= 0 {
		substringBonus := ScorePositionBonus * (1.0 - float64(index)/float64(len(text)))
		return ScoreSubstringMatch + substringBonus
	}

	// Word-based match: every query word appears somewhere in the text
	queryWords := strings.Fields(queryStr)
	if len(queryWords) > 1 {
		allMatch := true
		for _, word := range queryWords {
			if !strings.Contains(text, word) {
				allMatch = false
				break
			}
		}
		if allMatch {
			return ScoreFuzzyMatch
		}
	}

	// Character similarity
	if similarity := calculateSimilarity(queryStr, text); similarity > minSimilarity {
		return ScoreFuzzyMatch * similarity
	}

	return 0.0
}

// RankBookmarks returns the bookmarks matching queryStr, best first.
// Candidates with equal scores keep their input order, so a newest-first
// list stays newest-first among ties.
func RankBookmarks(queryStr string, bookmarks []Bookmark) []BookmarkCandidate {
	candidates := make([]BookmarkCandidate, 0, len(bookmarks))

	for _, bookmark := range bookmarks {
		score := ScoreBookmark(queryStr, bookmark)
		if score == 0.0 {
			continue
		}
		candidates = append(candidates, BookmarkCandidate{
			Bookmark: bookmark,
			Score:    score,
		})
	}

	slices.SortStableFunc(candidates, func(a, b BookmarkCandidate) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	return candidates
}

// SearchBookmarks returns the matching bookmarks, best first.
func SearchBookmarks(queryStr string, bookmarks []Bookmark) []Bookmark {
	candidates := RankBookmarks(queryStr, bookmarks)
	out := make([]Bookmark, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Bookmark)
	}
	return out
}

// calculateSimilarity returns the ratio of s1 runes that also appear in s2.
func calculateSimilarity(s1, s2 string) float64 {
	if s1 == "" || s2 == "" {
		return 0.0
	}

	matches := 0
	total := 0
	for _, c := range s1 {
		total++
		if strings.ContainsRune(s2, c) {
			matches++
		}
	}

	return float64(matches) / float64(total)
}
