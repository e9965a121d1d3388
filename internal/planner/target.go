// Package planner composes canonical target paths and filenames for
// identified media items and emits the ordered operation list that moves,
// creates, and downloads their files into place.
package planner

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jpixy/media-organizer/internal/grammar"
	"github.com/jpixy/media-organizer/internal/model"
)

var titleCaser = cases.Title(language.Und)

// CountryFolder implements §4.D's country-folder selection rule: from the
// list of (alpha-2, name) pairs, prefer the one matching originalLanguage
// via the fixed language table; else use the first pair. Rendered as
// "<CODE>_<TitleCased name, spaces removed>", or "Unknown" if the list is
// empty.
func CountryFolder(countries []model.Country, originalLanguage string) string {
	if len(countries) == 0 {
		return "Unknown"
	}

	chosen := countries[0]
	if preferredCode, ok := grammar.PreferredCountryCode(originalLanguage); ok {
		for _, c := range countries {
			code := c.Code
			if code == "" {
				code = grammar.CountryCode(c.Name)
			}
			if code == preferredCode {
				chosen = c
				break
			}
		}
	}

	code := chosen.Code
	if code == "" {
		code = grammar.CountryCode(chosen.Name)
	}
	titled := titleCaser.String(chosen.Name)
	titled = strings.ReplaceAll(titled, " ", "")
	return code + "_" + titled
}

// MovieFolderName implements §4.E.2's movie folder composition, applying
// the Chinese-title dedup rule: when original_language is "zh" or the
// normalized titles are equal, emit a single "[<title>]" block instead of
// the two-title form.
func MovieFolderName(m *model.MovieMeta) string {
	idSuffix := tmdbSuffix(m.ImdbID, m.TmdbID)
	if dedupTitles(m.OriginalTitle, m.Title, m.OriginalLanguage) {
		return fmt.Sprintf("[%s](%d)-%s", sanitize(displayTitle(m.Title, m.OriginalTitle)), m.Year, idSuffix)
	}
	return fmt.Sprintf("[%s][%s](%d)-%s", sanitize(m.OriginalTitle), sanitize(m.Title), m.Year, idSuffix)
}

// ShowFolderName implements §4.E.2's TV folder composition.
func ShowFolderName(s *model.ShowMeta) string {
	idSuffix := tmdbSuffix(s.ImdbID, s.TmdbID)
	if dedupTitles(s.OriginalName, s.Name, s.OriginalLanguage) {
		return fmt.Sprintf("[%s]-%s", sanitize(displayTitle(s.Name, s.OriginalName)), idSuffix)
	}
	return fmt.Sprintf("[%s][%s]-%s", sanitize(s.OriginalName), sanitize(s.Name), idSuffix)
}

func dedupTitles(original, localized, lang string) bool {
	if lang == "zh" {
		return true
	}
	return grammar.NormalizeTitle(original) == grammar.NormalizeTitle(localized)
}

func displayTitle(localized, original string) string {
	if localized != "" {
		return localized
	}
	return original
}

func tmdbSuffix(imdbID string, tmdbID int64) string {
	if imdbID != "" {
		return fmt.Sprintf("%s-tmdb%d", imdbID, tmdbID)
	}
	return fmt.Sprintf("tmdb%d", tmdbID)
}

// SeasonFolder renders "Season NN" with a zero-padded two-digit season.
func SeasonFolder(season int) string {
	return fmt.Sprintf("Season %02d", season)
}

// MovieFilename implements §4.E.3's movie filename composition:
// "[<titles>](<edition?>)(<year>)-<res>-<format>-<vcodec>-<bit>bit-<acodec>-<achan>.<ext>".
func MovieFilename(m *model.MovieMeta, edition, ext string, tech model.TechMeta) string {
	titles := movieTitleBlock(m)
	editionPart := ""
	if edition != "" {
		editionPart = fmt.Sprintf("(%s)", sanitize(edition))
	}
	return fmt.Sprintf("%s%s(%d)-%s-%s-%s-%sbit-%s-%s.%s",
		titles, editionPart, m.Year,
		tech.Resolution, tech.Container, tech.VideoCodec, tech.BitDepth, tech.AudioCodec, tech.ChannelLayout,
		ext,
	)
}

func movieTitleBlock(m *model.MovieMeta) string {
	if dedupTitles(m.OriginalTitle, m.Title, m.OriginalLanguage) {
		return fmt.Sprintf("[%s]", sanitize(displayTitle(m.Title, m.OriginalTitle)))
	}
	return fmt.Sprintf("[%s][%s]", sanitize(m.OriginalTitle), sanitize(m.Title))
}

// EpisodeFilename implements §4.E.3's episode filename composition:
// "[<show>]-S<ss>E<ee>-[<ep_title>]-<res>-<format>-<vcodec>-<bit>bit-<acodec>-<achan>.<ext>".
func EpisodeFilename(s *model.ShowMeta, e *model.EpisodeMeta, ext string, tech model.TechMeta) string {
	show := displayTitle(s.Name, s.OriginalName)
	return fmt.Sprintf("[%s]-S%02dE%02d-[%s]-%s-%s-%s-%sbit-%s-%s.%s",
		sanitize(show), e.SeasonNumber, e.EpisodeNumber, sanitize(e.Name),
		tech.Resolution, tech.Container, tech.VideoCodec, tech.BitDepth, tech.AudioCodec, tech.ChannelLayout,
		ext,
	)
}

func sanitize(s string) string {
	return grammar.SanitizeFilename(s)
}
