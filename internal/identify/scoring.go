package identify

import (
	"strings"
	"time"
	"unicode"

	"github.com/jpixy/media-organizer/internal/grammar"
	"github.com/jpixy/media-organizer/internal/identify/tmdb"
)

// selectBestMovieMatch scores search/movie candidates per spec §4.D:
// candidates released more than a year in the future are skipped outright;
// an exact normalized-title match is worth 100000, plus the raw vote
// count, plus 100 if the candidate has a non-zero year. Highest score
// wins; ties keep the first (search-API-ordered) candidate.
func selectBestMovieMatch(candidates []tmdb.MovieSearchItem, query string) tmdb.MovieSearchItem {
	normalizedQuery := grammar.NormalizeTitle(query)
	maxYear := time.Now().Year() + 1

	var best tmdb.MovieSearchItem
	bestScore := -1
	for _, c := range candidates {
		year := releaseYear(c.ReleaseDate)
		if year > maxYear {
			continue
		}

		score := c.VoteCount
		if grammar.NormalizeTitle(c.Title) == normalizedQuery || grammar.NormalizeTitle(c.OriginalTitle) == normalizedQuery {
			score += 100000
		}
		if year > 0 {
			score += 100
		}

		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	return best
}

func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	y := 0
	for _, r := range date[:4] {
		if r < '0' || r > '9' {
			return 0
		}
		y = y*10 + int(r-'0')
	}
	return y
}

// selectBestTvMatch scores search/tv candidates per spec §4.D's cascade:
// exact match +1000; prefix match +500 minus 10x the rune-count
// difference (can go negative); substring either direction +400/+100;
// >=50% character overlap +50; anything clearing none of those branches
// is discarded, not scored zero. Returns nil if nothing scored.
func selectBestTvMatch(query string, candidates []tmdb.TvSearchItem) *tmdb.TvSearchItem {
	q := strings.ToLower(strings.TrimSpace(query))
	qRunes := []rune(q)

	var best *tmdb.TvSearchItem
	bestScore := -1 << 31
	for i := range candidates {
		c := &candidates[i]
		name := strings.ToLower(strings.TrimSpace(c.Name))
		orig := strings.ToLower(strings.TrimSpace(c.OriginalName))

		score, matched := scoreTvName(q, qRunes, name)
		if s2, m2 := scoreTvName(q, qRunes, orig); m2 && (!matched || s2 > score) {
			score, matched = s2, true
		}
		if !matched {
			continue
		}
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	return best
}

func scoreTvName(q string, qRunes []rune, name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	if name == q {
		return 1000, true
	}
	nameRunes := []rune(name)
	if strings.HasPrefix(name, q) {
		return 500 - 10*(len(nameRunes)-len(qRunes)), true
	}
	if strings.Contains(q, name) {
		return 400, true
	}
	if strings.Contains(name, q) {
		return 100, true
	}
	if characterOverlap(qRunes, nameRunes) >= 0.5 {
		return 50, true
	}
	return 0, false
}

func characterOverlap(a, b []rune) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setB := make(map[rune]bool, len(b))
	for _, r := range b {
		setB[r] = true
	}
	shared := 0
	for _, r := range a {
		if setB[r] {
			shared++
		}
	}
	denom := len(a)
	if len(b) < denom {
		denom = len(b)
	}
	return float64(shared) / float64(denom)
}

// isReasonableMatch implements the movie-path-only reasonableness gate:
// title-contains-query (either direction) or >=50% CJK character-set
// overlap. Per the decided Open Question, this gate is applied to movie
// matches only — the TV scorer's own substring/overlap branches already
// enforce an equivalent relatedness bar before awarding any positive
// score.
func isReasonableMatch(query, title, originalTitle string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, candidate := range []string{title, originalTitle} {
		c := strings.ToLower(strings.TrimSpace(candidate))
		if c == "" {
			continue
		}
		if strings.Contains(c, q) || strings.Contains(q, c) {
			return true
		}
		if hasCJKRunes(q) || hasCJKRunes(c) {
			if characterOverlap([]rune(q), []rune(c)) >= 0.5 {
				return true
			}
		}
	}
	return false
}

func hasCJKRunes(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
