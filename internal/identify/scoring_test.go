package identify

import (
	"testing"

	"github.com/jpixy/media-organizer/internal/identify/tmdb"
	"github.com/stretchr/testify/assert"
)

func TestSelectBestMovieMatchPrefersExactTitleAndVotes(t *testing.T) {
	candidates := []tmdb.MovieSearchItem{
		{ID: 1, Title: "The Matrix Reloaded", ReleaseDate: "2003-05-15", VoteCount: 9000},
		{ID: 2, Title: "The Matrix", ReleaseDate: "1999-03-31", VoteCount: 200},
	}
	best := selectBestMovieMatch(candidates, "The Matrix")
	assert.Equal(t, int64(2), best.ID)
}

func TestSelectBestMovieMatchSkipsFarFutureCandidate(t *testing.T) {
	candidates := []tmdb.MovieSearchItem{
		{ID: 1, Title: "Ghost Movie", ReleaseDate: "2099-01-01", VoteCount: 5000},
		{ID: 2, Title: "Ghost Movie", ReleaseDate: "2020-01-01", VoteCount: 10},
	}
	best := selectBestMovieMatch(candidates, "Ghost Movie")
	assert.Equal(t, int64(2), best.ID)
}

func TestSelectBestTvMatchExactBeatsPrefix(t *testing.T) {
	candidates := []tmdb.TvSearchItem{
		{ID: 1, Name: "Friends Forever"},
		{ID: 2, Name: "Friends"},
	}
	best := selectBestTvMatch("Friends", candidates)
	assert.NotNil(t, best)
	assert.Equal(t, int64(2), best.ID)
}

func TestSelectBestTvMatchDiscardsUnrelatedCandidate(t *testing.T) {
	candidates := []tmdb.TvSearchItem{
		{ID: 1, Name: "Lost"},
	}
	best := selectBestTvMatch("Friends", candidates)
	assert.Nil(t, best)
}

func TestSelectBestTvMatchPrefixPenalizesLengthDifference(t *testing.T) {
	candidates := []tmdb.TvSearchItem{
		{ID: 1, Name: "Loki Season"},
		{ID: 2, Name: "Loki: Extended Special Edition Cut"},
	}
	best := selectBestTvMatch("Loki", candidates)
	assert.NotNil(t, best)
	assert.Equal(t, int64(1), best.ID) // shorter prefix match (500-10*7=430) beats longer one (500-10*30=200)
}

func TestIsReasonableMatchMovieOnlyGate(t *testing.T) {
	assert.True(t, isReasonableMatch("Matrix", "The Matrix", "The Matrix"))
	assert.False(t, isReasonableMatch("Matrix", "Totally Different Title", "完全不同"))
}

func TestIsReasonableMatchCJKOverlap(t *testing.T) {
	assert.True(t, isReasonableMatch("流浪地球", "流浪地球2", "The Wandering Earth 2"))
}
