package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrganizedFolder(t *testing.T) {
	f, ok := ParseOrganizedFolder("[阿凡达](2009)-tt0499549-tmdb19995")
	require.True(t, ok)
	assert.Equal(t, int64(19995), f.TmdbID)
	assert.Equal(t, "tt0499549", f.ImdbID)
	assert.Equal(t, "阿凡达", f.Title)
	assert.Equal(t, 2009, f.Year)
}

func TestParseOrganizedFolderNoImdb(t *testing.T) {
	f, ok := ParseOrganizedFolder("[动物农场](2024)-tmdb12345")
	require.True(t, ok)
	assert.Equal(t, int64(12345), f.TmdbID)
	assert.Empty(t, f.ImdbID)
}

func TestParseOrganizedTVFilename(t *testing.T) {
	tv, ok := ParseOrganizedTVFilename("[黑盒子]-S01E02-[第二集]-2160p-WEB-DL.mkv")
	require.True(t, ok)
	assert.Equal(t, 1, tv.Season)
	assert.Equal(t, 2, tv.Episode)
	assert.Equal(t, "黑盒子", tv.Title)
}

func TestExtractSeasonChineseNumeral(t *testing.T) {
	n, ok := ExtractSeason("第三季")
	require.True(t, ok)
	assert.Equal(t, 3, n)

	n, ok = ExtractSeason("Season 02")
	require.True(t, ok)
	assert.Equal(t, 2, n)
}

func TestExtractEpisodeLeadingNumberHeuristic(t *testing.T) {
	info, ok := ExtractEpisode("01 4K.mp4")
	require.True(t, ok)
	assert.Equal(t, 1, info.Season)
	assert.Equal(t, 1, info.Episode)
}

func TestExtractEpisodeSE(t *testing.T) {
	info, ok := ExtractEpisode("Show.S02E05.1080p.mkv")
	require.True(t, ok)
	assert.Equal(t, 2, info.Season)
	assert.Equal(t, 5, info.Episode)
}

func TestSniffIDs(t *testing.T) {
	imdb, tmdb := SniffIDs([]string{"movies", "[阿凡达]-tt0499549-19995", "file.mkv"})
	assert.Equal(t, "tt0499549", imdb)
	assert.Equal(t, int64(0), tmdb) // no "tmdb" prefix token in this example
}

func TestClassifyDirectoryQuality(t *testing.T) {
	d := ClassifyDirectory("1080p")
	assert.Equal(t, DirQuality, d.Type)
}

func TestClassifyDirectoryTitle(t *testing.T) {
	d := ClassifyDirectory("阿凡达(2009)")
	assert.Equal(t, DirTitle, d.Type)
	assert.Equal(t, 2009, d.Year)
}

func TestSplitTitle(t *testing.T) {
	p := SplitTitle("阿凡达 Avatar")
	assert.Equal(t, "阿凡达", p.Chinese)
	assert.Equal(t, "Avatar", p.English)
}

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "thematrix", NormalizeTitle("The Matrix"))
}

func TestCountryCode(t *testing.T) {
	assert.Equal(t, "CN", CountryCode("China"))
	assert.Equal(t, "KR", CountryCode("south korea"))
	assert.Equal(t, "Atlantis", CountryCode("Atlantis"))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a_b_c", SanitizeFilename("a/b:c"))
}

func TestIsMinimalFilename(t *testing.T) {
	assert.True(t, IsMinimalFilename("2024 SP.mp4"))
	assert.False(t, IsMinimalFilename("A.Reasonably.Long.Movie.Title.2024.mkv"))
}
