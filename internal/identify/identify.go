// Package identify implements the Identification Pipeline: a cascading
// evidence cascade that assigns each video a confirmed external identity
// while spending as little AI/API cost as possible.
package identify

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jpixy/media-organizer/internal/grammar"
	"github.com/jpixy/media-organizer/internal/identify/llm"
	"github.com/jpixy/media-organizer/internal/identify/tmdb"
	"github.com/jpixy/media-organizer/internal/model"
)

// MetadataService is the subset of the tmdb.Client this package consumes,
// so tests can substitute a fake.
type MetadataService interface {
	SearchMovie(ctx context.Context, query string, year int) ([]tmdb.MovieSearchItem, error)
	GetMovieDetails(ctx context.Context, id int64) (*tmdb.MovieDetails, error)
	SearchTv(ctx context.Context, query string, year int) ([]tmdb.TvSearchItem, error)
	GetTvDetails(ctx context.Context, id int64) (*tmdb.TvDetails, error)
	GetEpisodeDetails(ctx context.Context, tvID int64, season, episode int) (*tmdb.EpisodeDetails, error)
}

// AIParser is the subset of the llm.Adapter this package consumes.
type AIParser interface {
	Parse(ctx context.Context, filename string) (*llm.Result, error)
}

// Pipeline runs the evidence cascade and resolves confirmed metadata.
type Pipeline struct {
	Metadata MetadataService
	AI       AIParser

	// showCache remembers the ShowMeta + tmdb ID resolved for the first
	// file of a TV group, keyed by the group's directory. This is the
	// primary cost optimization named in spec §4.D: subsequent files in
	// the same group skip the TV search, match scoring and details fetch.
	// ResolveCandidate (steps 1-7, the AI call included) still runs for
	// every file of the group.
	showCache map[string]*cachedShow
}

type cachedShow struct {
	show   *model.ShowMeta
	tmdbID int64
}

// NewPipeline constructs a Pipeline.
func NewPipeline(metadata MetadataService, ai AIParser) *Pipeline {
	return &Pipeline{Metadata: metadata, AI: ai, showCache: map[string]*cachedShow{}}
}

// IdentifiedMovie is the confirmed result of identifying a movie file.
type IdentifiedMovie struct {
	Candidate model.CandidateMeta
	Meta      *model.MovieMeta
}

// IdentifiedEpisode is the confirmed result of identifying one TV episode.
type IdentifiedEpisode struct {
	Candidate model.CandidateMeta
	Show      *model.ShowMeta
	Episode   *model.EpisodeMeta
}

// --- Step 1-6: evidence cascade over filename + ancestor path ---

// evidenceFromPath runs steps 1-6 of the cascade for one file, given its
// full path; step 5 reads the file's parent directory name from that path.
func evidenceFromPath(fullPath string) model.CandidateMeta {
	filename := filepath.Base(fullPath)
	dir := filepath.Dir(fullPath)
	components := strings.Split(filepath.Clean(fullPath), string(filepath.Separator))

	// Step 1: organized filename (movie or TV).
	if tv, ok := grammar.ParseOrganizedTVFilename(filename); ok {
		var season, ep *int
		s, e := tv.Season, tv.Episode
		season, ep = &s, &e
		return model.CandidateMeta{
			Title: tv.Title, OriginalTitle: tv.OriginalTitle,
			Season: season, Episode: ep, Source: model.SourceOrganizedFilename, Confidence: 1.0,
		}
	}
	if mv, ok := grammar.ParseOrganizedMovieFilename(filename); ok {
		return model.CandidateMeta{
			Title: mv.Title, OriginalTitle: mv.OriginalTitle, Year: mv.Year,
			TmdbID: mv.TmdbID, ImdbID: mv.ImdbID, Source: model.SourceOrganizedFilename, Confidence: 1.0,
		}
	}

	// Step 2: organized ancestor directory.
	for i := len(components) - 2; i >= 0; i-- {
		if f, ok := grammar.ParseOrganizedFolder(components[i]); ok {
			return model.CandidateMeta{
				Title: f.Title, Year: f.Year, TmdbID: f.TmdbID, ImdbID: f.ImdbID,
				Source: model.SourceOrganizedFolder, Confidence: 1.0,
			}
		}
	}

	// Step 3: ID sniff of full path.
	if imdb, tmdbID := grammar.SniffIDs(components); imdb != "" || tmdbID != 0 {
		return model.CandidateMeta{
			TmdbID: tmdbID, ImdbID: imdb, Source: model.SourceFilenameRegex, Confidence: 0.7,
		}
	}

	// Step 4: filename regex extraction.
	filenameCand := extractFromFilename(filename)

	// Step 5: directory title extraction at the group's parent.
	dirCand := extractFromDirectory(dir)

	// Step 6: merge, filename wins field-by-field.
	merged := filenameCand.Merge(dirCand)
	if merged.Episode != nil && !merged.HasSearchableInfo() {
		merged.NeedsAI = true
	}
	return merged
}

// extractFromFilename implements step 4: episode/year/title extraction via
// regex, confidence scored per original_source semantics.
func extractFromFilename(filename string) model.CandidateMeta {
	cand := model.CandidateMeta{Source: model.SourceFilenameRegex, Confidence: 0.5}

	if info, ok := grammar.ExtractEpisode(filename); ok {
		season, ep := info.Season, info.Episode
		if season == 0 {
			season = 1
		}
		cand.Season = &season
		cand.Episode = &ep
	}
	if year, ok := extractYear(filename); ok {
		cand.Year = year
	}
	if imdb, tmdbID := grammar.SniffIDs([]string{filename}); imdb != "" || tmdbID != 0 {
		cand.ImdbID = imdb
		cand.TmdbID = tmdbID
	}

	title := stripKnownMarkers(filename)
	parts := grammar.SplitTitle(title)
	if parts.Chinese != "" {
		cand.Title = parts.Chinese
	}
	if parts.English != "" {
		cand.OriginalTitle = parts.English
	}

	if cand.HasSearchableInfo() {
		cand.Confidence = 0.7
	}
	if cand.Year != 0 {
		cand.Confidence += 0.1
	}
	if cand.ImdbID != "" {
		cand.Confidence = 0.95
	}
	return cand
}

func extractYear(s string) (int, bool) {
	// Simple 4-digit year scan, excluding common resolution numbers that
	// masquerade as years.
	excluded := map[int]bool{2160: true, 1920: true, 1440: true, 1280: true}
	for i := 0; i+4 <= len(s); i++ {
		chunk := s[i : i+4]
		allDigits := true
		for _, r := range chunk {
			if r < '0' || r > '9' {
				allDigits = false
				break
			}
		}
		if !allDigits {
			continue
		}
		y, err := strconv.Atoi(chunk)
		if err != nil || excluded[y] {
			continue
		}
		if y >= 1900 && y <= time.Now().Year()+2 {
			return y, true
		}
	}
	return 0, false
}

func stripKnownMarkers(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	markers := []string{
		"2160p", "1080p", "720p", "480p", "BluRay", "WEB-DL", "WEBDL", "HDTV",
		"REMUX", "HEVC", "H264", "H265", "x264", "x265", "AVC", "AV1",
		"TrueHD", "DTS-HD", "DTS", "AAC", "AC3", "DDP", "Atmos", "FLAC",
		"10bit", "8bit", "12bit",
	}
	out := base
	for _, m := range markers {
		out = replaceCaseInsensitive(out, m, "")
	}
	out = strings.NewReplacer(".", " ", "_", " ").Replace(out)
	return strings.TrimSpace(out)
}

func replaceCaseInsensitive(s, old, new string) string {
	lowerS := strings.ToLower(s)
	lowerOld := strings.ToLower(old)
	var b strings.Builder
	i := 0
	for {
		idx := strings.Index(lowerS[i:], lowerOld)
		if idx < 0 {
			b.WriteString(s[i:])
			break
		}
		b.WriteString(s[i : i+idx])
		b.WriteString(new)
		i += idx + len(old)
	}
	return b.String()
}

// extractFromDirectory implements step 5: directory title extraction.
func extractFromDirectory(dir string) model.CandidateMeta {
	name := filepath.Base(dir)
	classified := grammar.ClassifyDirectory(name)
	if classified.Type != grammar.DirTitle {
		return model.CandidateMeta{Source: model.SourceDirectoryName}
	}
	return model.CandidateMeta{
		Title:         classified.Title.Chinese,
		OriginalTitle: classified.Title.English,
		Year:          classified.Year,
		Source:        model.SourceDirectoryName,
		Confidence:    0.4,
	}
}

// --- Step 7: AI fallback ---

// ResolveCandidate runs steps 1-7 for a single file path, consulting the
// AI parser only when the cascade's result needsAI or lacks a searchable
// title.
func (p *Pipeline) ResolveCandidate(ctx context.Context, fullPath string) model.CandidateMeta {
	cand := evidenceFromPath(fullPath)
	if !cand.ShouldUseAI() || p.AI == nil {
		return cand
	}

	result, err := p.AI.Parse(ctx, filepath.Base(fullPath))
	if err != nil {
		return cand
	}

	aiCand := model.CandidateMeta{
		Title:         result.Title,
		OriginalTitle: result.OriginalTitle,
		Year:          result.Year,
		Source:        model.SourceAiParsing,
		Confidence:    result.Confidence,
	}
	if result.Season > 0 {
		s := result.Season
		aiCand.Season = &s
	}
	if result.Episode > 0 {
		e := result.Episode
		aiCand.Episode = &e
	}
	return cand.MergeAIResult(aiCand)
}

// buildQueries constructs the ordered list of search queries per spec
// §4.D: Chinese title first (with shortened variants), then original
// title.
func buildQueries(cand model.CandidateMeta) []string {
	var queries []string
	if cand.Title != "" {
		queries = append(queries, cand.Title)
		queries = grammar.AddShortenedQueries(queries, cand.Title)
	}
	if cand.OriginalTitle != "" {
		dup := false
		for _, q := range queries {
			if q == cand.OriginalTitle {
				dup = true
			}
		}
		if !dup {
			queries = append(queries, cand.OriginalTitle)
		}
	}
	return queries
}

// IdentifyMovie resolves a movie CandidateMeta to confirmed MovieMeta,
// per spec §4.D's query-then-score-then-gate algorithm.
func (p *Pipeline) IdentifyMovie(ctx context.Context, cand model.CandidateMeta) (*model.MovieMeta, error) {
	if cand.HasTmdbID() {
		return p.fetchMovieDetails(ctx, cand.TmdbID)
	}

	for _, query := range buildQueries(cand) {
		if results, err := p.Metadata.SearchMovie(ctx, query, cand.Year); err == nil && len(results) > 0 {
			best := selectBestMovieMatch(results, query)
			if isReasonableMatch(query, best.Title, best.OriginalTitle) {
				return p.fetchMovieDetails(ctx, best.ID)
			}
		}
		if results, err := p.Metadata.SearchMovie(ctx, query, 0); err == nil && len(results) > 0 {
			best := selectBestMovieMatch(results, query)
			if isReasonableMatch(query, best.Title, best.OriginalTitle) {
				return p.fetchMovieDetails(ctx, best.ID)
			}
		}
	}
	return nil, nil
}

func (p *Pipeline) fetchMovieDetails(ctx context.Context, id int64) (*model.MovieMeta, error) {
	details, err := p.Metadata.GetMovieDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	return movieMetaFromDetails(details), nil
}

func movieMetaFromDetails(d *tmdb.MovieDetails) *model.MovieMeta {
	meta := &model.MovieMeta{
		TmdbID:           d.ID,
		ImdbID:           d.ImdbID,
		Title:            d.Title,
		OriginalTitle:    d.OriginalTitle,
		OriginalLanguage: d.OriginalLanguage,
		ReleaseDate:      d.ReleaseDate,
		Overview:         d.Overview,
		Tagline:          d.Tagline,
		Runtime:          d.Runtime,
		Rating:           d.VoteAverage,
		Votes:            d.VoteCount,
	}
	if len(d.ReleaseDate) >= 4 {
		if y, err := strconv.Atoi(d.ReleaseDate[:4]); err == nil {
			meta.Year = y
		}
	}
	for _, g := range d.Genres {
		meta.Genres = append(meta.Genres, g.Name)
	}
	for _, c := range d.ProductionCountries {
		meta.Countries = append(meta.Countries, model.Country{Code: c.ISO31661, Name: c.Name})
	}
	for _, s := range d.ProductionCompanies {
		meta.Studios = append(meta.Studios, s.Name)
	}
	if d.PosterPath != "" {
		meta.PosterURLs = []string{tmdb.PosterURL(d.PosterPath, "original")}
	}
	if d.BackdropPath != "" {
		meta.BackdropURL = tmdb.PosterURL(d.BackdropPath, "original")
	}
	if d.BelongsToCollection != nil {
		meta.Collection = &model.Collection{ID: d.BelongsToCollection.ID, Name: d.BelongsToCollection.Name}
	}
	if d.Credits != nil {
		for i, c := range d.Credits.Cast {
			if i >= 10 {
				break
			}
			meta.Actors = append(meta.Actors, model.Actor{Name: c.Name, Role: c.Character, Order: c.Order})
		}
		for _, c := range d.Credits.Crew {
			switch c.Job {
			case "Director":
				meta.Directors = append(meta.Directors, c.Name)
			case "Writer", "Screenplay":
				meta.Writers = append(meta.Writers, c.Name)
			}
		}
	}
	if d.ReleaseDates != nil {
		for _, rc := range d.ReleaseDates.Results {
			if rc.ISO31661 == "US" {
				for _, rd := range rc.ReleaseDates {
					if rd.Certification != "" {
						meta.Certification = rd.Certification
					}
				}
			}
		}
	}
	return meta
}

// IdentifyShow resolves a TV CandidateMeta to a confirmed ShowMeta,
// reusing the group's cached show if already resolved for this dir.
func (p *Pipeline) IdentifyShow(ctx context.Context, groupDir string, cand model.CandidateMeta, folderName string) (*model.ShowMeta, int64, error) {
	if cached, ok := p.showCache[groupDir]; ok {
		return cached.show, cached.tmdbID, nil
	}

	show, tmdbID, err := p.resolveShow(ctx, cand, folderName)
	if err != nil {
		return nil, 0, err
	}
	p.showCache[groupDir] = &cachedShow{show: show, tmdbID: tmdbID}
	return show, tmdbID, nil
}

func (p *Pipeline) resolveShow(ctx context.Context, cand model.CandidateMeta, folderName string) (*model.ShowMeta, int64, error) {
	if cand.HasTmdbID() {
		details, err := p.Metadata.GetTvDetails(ctx, cand.TmdbID)
		if err != nil {
			return nil, 0, err
		}
		return showMetaFromDetails(details), details.ID, nil
	}

	queries := buildQueries(cand)
	if folderName != "" && !isQualityFolderName(folderName) {
		cleaned := cleanFolderQuery(folderName)
		if cleaned != "" {
			queries = append(queries, cleaned)
		}
	}

	for _, query := range queries {
		results, err := p.Metadata.SearchTv(ctx, query, cand.Year)
		if err != nil {
			continue
		}
		if len(results) == 0 {
			results, err = p.Metadata.SearchTv(ctx, query, 0)
			if err != nil || len(results) == 0 {
				continue
			}
		}
		if best := selectBestTvMatch(query, results); best != nil {
			details, err := p.Metadata.GetTvDetails(ctx, best.ID)
			if err != nil {
				continue
			}
			return showMetaFromDetails(details), details.ID, nil
		}
	}
	return nil, 0, nil
}

// isQualityFolderName reports whether the immediate parent directory looks
// like a quality descriptor rather than a title, per spec §4.D's
// folder-name fallback rule.
func isQualityFolderName(name string) bool {
	lower := strings.ToLower(name)
	for _, m := range []string{"1080", "720", "2160", "4k", "内封", "外挂", "字幕", "season"} {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func cleanFolderQuery(folder string) string {
	cleaned := strings.TrimPrefix(folder, "Z_")
	cleaned = strings.TrimPrefix(cleaned, "z_")
	if idx := strings.Index(cleaned, "."); idx >= 0 {
		cleaned = cleaned[:idx]
	}
	cleaned = strings.NewReplacer(".", " ", "_", " ").Replace(cleaned)
	return strings.TrimSpace(cleaned)
}

func showMetaFromDetails(d *tmdb.TvDetails) *model.ShowMeta {
	meta := &model.ShowMeta{
		TmdbID:           d.ID,
		Name:             d.Name,
		OriginalName:     d.OriginalName,
		OriginalLanguage: d.OriginalLanguage,
		FirstAirDate:     d.FirstAirDate,
		Overview:         d.Overview,
		Tagline:          d.Tagline,
		Rating:           d.VoteAverage,
		Votes:            d.VoteCount,
		NumberOfSeasons:  d.NumberOfSeasons,
		NumberOfEpisodes: d.NumberOfEpisodes,
		Status:           d.Status,
	}
	if len(d.FirstAirDate) >= 4 {
		if y, err := strconv.Atoi(d.FirstAirDate[:4]); err == nil {
			meta.Year = y
		}
	}
	if d.ExternalIDs != nil {
		meta.ImdbID = d.ExternalIDs.ImdbID
	}
	for _, g := range d.Genres {
		meta.Genres = append(meta.Genres, g.Name)
	}
	for _, c := range d.ProductionCountries {
		meta.Countries = append(meta.Countries, model.Country{Code: c.ISO31661, Name: c.Name})
	}
	for _, n := range d.Networks {
		meta.Networks = append(meta.Networks, n.Name)
	}
	for _, c := range d.CreatedBy {
		meta.Creators = append(meta.Creators, c.Name)
	}
	if d.PosterPath != "" {
		meta.PosterURLs = []string{tmdb.PosterURL(d.PosterPath, "original")}
	}
	if d.BackdropPath != "" {
		meta.BackdropURL = tmdb.PosterURL(d.BackdropPath, "original")
	}
	if d.Credits != nil {
		for i, c := range d.Credits.Cast {
			if i >= 10 {
				break
			}
			meta.Actors = append(meta.Actors, model.Actor{Name: c.Name, Role: c.Character, Order: c.Order})
		}
	}
	return meta
}

// IdentifyEpisode resolves an episode record for a cached show, with
// graceful degradation to a synthetic "Episode N" on service failure.
func (p *Pipeline) IdentifyEpisode(ctx context.Context, tvID int64, season, episode int) *model.EpisodeMeta {
	details, err := p.Metadata.GetEpisodeDetails(ctx, tvID, season, episode)
	if err != nil {
		return &model.EpisodeMeta{
			SeasonNumber:  season,
			EpisodeNumber: episode,
			Name:          "Episode " + strconv.Itoa(episode),
		}
	}
	return &model.EpisodeMeta{
		SeasonNumber:  season,
		EpisodeNumber: episode,
		Name:          details.Name,
		AirDate:       details.AirDate,
		Overview:      details.Overview,
	}
}
