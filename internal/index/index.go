// Package index maintains the per-disk and central cross-disk catalogs of
// organized media, built by scanning NFO files left behind by the plan
// builder and executor.
package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/jpixy/media-organizer/internal/grammar"
	"github.com/jpixy/media-organizer/internal/model"
)

// Store persists the central index and per-disk indexes under a base
// directory: "<base>/central.json" and "<base>/disk_indexes/<label>.json".
type Store struct {
	baseDir string
}

// NewStore builds a Store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// CentralPath returns the path to the aggregated central index file.
func (s *Store) CentralPath() string {
	return filepath.Join(s.baseDir, "central.json")
}

// DiskIndexPath returns the path to one disk's index file.
func (s *Store) DiskIndexPath(label string) string {
	return filepath.Join(s.baseDir, "disk_indexes", label+".json")
}

// LoadCentral reads the central index, returning an empty one if no file
// exists yet.
func (s *Store) LoadCentral() (*model.CentralIndex, error) {
	path := s.CentralPath()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return emptyCentral(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read central index: %w", err)
	}
	var idx model.CentralIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parse central index: %w", err)
	}
	return &idx, nil
}

// SaveCentral writes the central index, first copying any existing file to
// a ".backup" sibling so a crash mid-write never loses the prior state.
func (s *Store) SaveCentral(idx *model.CentralIndex) error {
	path := s.CentralPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := backupIfExists(path); err != nil {
		return err
	}
	idx.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadDisk reads one disk's index, or nil if it has never been indexed.
func (s *Store) LoadDisk(label string) (*model.DiskIndex, error) {
	path := s.DiskIndexPath(label)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read disk index %s: %w", label, err)
	}
	var idx model.DiskIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parse disk index %s: %w", label, err)
	}
	idx.BasePath = idx.Paths["movies"]
	if idx.BasePath == "" {
		idx.BasePath = idx.Paths["tvshows"]
	}
	return &idx, nil
}

// SaveDisk writes one disk's index, backing up any existing file first.
func (s *Store) SaveDisk(idx *model.DiskIndex) error {
	path := s.DiskIndexPath(idx.Label)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := backupIfExists(path); err != nil {
		return err
	}
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func backupIfExists(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path+".backup", data, 0o644)
}

func emptyCentral() *model.CentralIndex {
	return &model.CentralIndex{
		Disks:        map[string]model.DiskInfo{},
		Collections:  map[int64]model.CollectionInfo{},
		ByActor:      map[string][]string{},
		ByDirector:   map[string][]string{},
		ByGenre:      map[string][]string{},
		ByYear:       map[int][]string{},
		ByCountry:    map[string][]string{},
		ByCollection: map[int64][]string{},
	}
}

// DetectDiskLabel extracts a disk label from a mount path, following the
// same conventions as Linux removable-media mounts: "/run/media/<user>/<label>/…",
// "/media/<user>/<label>/…", "/mnt/<label>/…", falling back to the leaf
// directory name when none of those patterns match.
func DetectDiskLabel(path string) string {
	clean := filepath.Clean(path)
	parts := strings.Split(clean, string(filepath.Separator))

	switch {
	case strings.HasPrefix(clean, "/run/media/"):
		if len(parts) >= 5 {
			return parts[4]
		}
	case strings.HasPrefix(clean, "/media/"):
		if len(parts) >= 4 {
			return parts[3]
		}
	case strings.HasPrefix(clean, "/mnt/"):
		if len(parts) >= 3 {
			return parts[2]
		}
	}
	return filepath.Base(clean)
}

var videoSizeExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true, ".mov": true, ".wmv": true,
	".flv": true, ".webm": true, ".m4v": true, ".ts": true,
}

// ScanDirectory walks root looking for movie.nfo/tvshow.nfo files left by
// the plan builder and assembles a fresh DiskIndex for label.
func ScanDirectory(root, label, diskUUID, mediaType string) (*model.DiskIndex, error) {
	idx := &model.DiskIndex{
		Label:       label,
		UUID:        diskUUID,
		LastIndexed: time.Now(),
		Paths:       map[string]string{mediaType: root},
		BasePath:    root,
	}

	nfoName := "movie.nfo"
	if mediaType == "tvshows" {
		nfoName = "tvshow.nfo"
	}

	var totalSize int64
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Name() != nfoName {
			return nil
		}
		content, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		dir := filepath.Dir(path)
		relPath, _ := filepath.Rel(root, dir)
		size := directoryVideoSize(dir)
		totalSize += size

		if nfoName == "movie.nfo" {
			idx.Movies = append(idx.Movies, ParseMovieNFO(string(content), label, diskUUID, relPath, size))
		} else {
			idx.TvShows = append(idx.TvShows, ParseTvShowNFO(string(content), label, diskUUID, relPath, size))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	idx.MovieCount = len(idx.Movies)
	idx.TvShowCount = len(idx.TvShows)
	idx.TotalSizeBytes = totalSize
	return idx, nil
}

func directoryVideoSize(dir string) int64 {
	var total int64
	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !videoSizeExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if info, statErr := d.Info(); statErr == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}

var tagRe = func(tag string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)<` + tag + `[^>]*>(.*?)</` + tag + `>`)
}

func getTag(content, tag string) string {
	m := tagRe(tag).FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func getAllTags(content, tag string) []string {
	matches := tagRe(tag).FindAllStringSubmatch(content, -1)
	var out []string
	for _, m := range matches {
		v := strings.TrimSpace(m[1])
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

var (
	tmdbUniqueIDRe = regexp.MustCompile(`(?s)<uniqueid[^>]*type="tmdb"[^>]*>(\d+)</uniqueid>`)
	imdbUniqueIDRe = regexp.MustCompile(`(?s)<uniqueid[^>]*type="imdb"[^>]*>(tt\d+)</uniqueid>`)
	actorNameRe    = regexp.MustCompile(`(?s)<name>(.*?)</name>`)
	setNameRe      = regexp.MustCompile(`(?s)<set>\s*<name>(.*?)</name>`)
)

func extractTmdbID(content string) int64 {
	if v := getTag(content, "tmdbid"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			return id
		}
	}
	if m := tmdbUniqueIDRe.FindStringSubmatch(content); m != nil {
		if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return id
		}
	}
	return 0
}

func extractImdbID(content string) string {
	if v := getTag(content, "imdbid"); v != "" {
		return v
	}
	if m := imdbUniqueIDRe.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	return ""
}

func extractActorNames(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, a := range raw {
		if m := actorNameRe.FindStringSubmatch(a); m != nil {
			out = append(out, strings.TrimSpace(m[1]))
			continue
		}
		out = append(out, a)
	}
	return out
}

// ParseMovieNFO tolerantly extracts a MovieEntry from a movie.nfo document.
// Extraction is regex-based rather than a strict XML unmarshal so that
// hand-edited or partially malformed NFOs still yield usable metadata.
func ParseMovieNFO(content, disk, diskUUID, relativePath string, sizeBytes int64) model.MovieEntry {
	title := getTag(content, "title")
	if title == "" {
		title = "Unknown"
	}
	year, _ := strconv.Atoi(getTag(content, "year"))
	runtime, _ := strconv.Atoi(getTag(content, "runtime"))
	rating, _ := strconv.ParseFloat(getTag(content, "rating"), 64)
	collectionID, _ := strconv.ParseInt(getTag(content, "tmdbcollectionid"), 10, 64)

	collectionName := ""
	if m := setNameRe.FindStringSubmatch(content); m != nil {
		collectionName = strings.TrimSpace(m[1])
	} else if v := getTag(content, "set"); v != "" && !strings.Contains(v, "<") {
		collectionName = v
	}

	meta := model.MovieMeta{
		TmdbID:        extractTmdbID(content),
		ImdbID:        extractImdbID(content),
		Title:         title,
		OriginalTitle: getTag(content, "originaltitle"),
		Year:          year,
		Overview:      getTag(content, "plot"),
		Runtime:       runtime,
		Genres:        getAllTags(content, "genre"),
		Directors:     getAllTags(content, "director"),
		Rating:        rating,
		Actors:        actorsFromEntries(extractActorNames(getAllTags(content, "actor"))),
	}
	if country := getTag(content, "country"); country != "" {
		meta.Countries = []model.Country{{Name: country}}
	}
	if collectionID != 0 {
		meta.Collection = &model.Collection{ID: collectionID, Name: collectionName}
	}

	return model.MovieEntry{
		ID:           uuid.NewString(),
		Disk:         disk,
		Meta:         meta,
		RelativePath: relativePath,
		SizeBytes:    sizeBytes,
		Resolution:   getTag(content, "resolution"),
		IndexedAt:    time.Now(),
	}
}

// ParseTvShowNFO tolerantly extracts a TvShowEntry from a tvshow.nfo document.
func ParseTvShowNFO(content, disk, diskUUID, relativePath string, sizeBytes int64) model.TvShowEntry {
	title := getTag(content, "title")
	if title == "" {
		title = "Unknown"
	}
	year, _ := strconv.Atoi(getTag(content, "year"))
	if year == 0 {
		if premiered := getTag(content, "premiered"); len(premiered) >= 4 {
			year, _ = strconv.Atoi(premiered[:4])
		}
	}

	meta := model.ShowMeta{
		TmdbID:       extractTmdbID(content),
		ImdbID:       extractImdbID(content),
		Name:         title,
		OriginalName: getTag(content, "originaltitle"),
		Year:         year,
		Overview:     getTag(content, "plot"),
		Genres:       getAllTags(content, "genre"),
		Actors:       actorsFromEntries(extractActorNames(getAllTags(content, "actor"))),
	}
	if country := getTag(content, "country"); country != "" {
		meta.Countries = []model.Country{{Name: country}}
	}

	return model.TvShowEntry{
		ID:           uuid.NewString(),
		Disk:         disk,
		Meta:         meta,
		RelativePath: relativePath,
		SizeBytes:    sizeBytes,
		IndexedAt:    time.Now(),
	}
}

func actorsFromEntries(names []string) []model.Actor {
	out := make([]model.Actor, 0, len(names))
	for i, n := range names {
		out = append(out, model.Actor{Name: n, Order: i})
	}
	return out
}

// MergeDiskIntoCentral folds a freshly scanned DiskIndex into the central
// index: the disk's prior entries are dropped before the new ones are
// appended, so a rescan fully replaces a disk's contribution. Secondary
// indexes and statistics are rebuilt afterward.
func MergeDiskIntoCentral(central *model.CentralIndex, disk *model.DiskIndex) {
	central.Disks[disk.Label] = model.DiskInfo{
		Label:          disk.Label,
		UUID:           disk.UUID,
		LastIndexed:    disk.LastIndexed,
		MovieCount:     disk.MovieCount,
		TvShowCount:    disk.TvShowCount,
		TotalSizeBytes: disk.TotalSizeBytes,
		Paths:          disk.Paths,
	}

	central.Movies = dropDisk(central.Movies, disk.Label)
	central.TvShows = dropDiskTv(central.TvShows, disk.Label)
	central.Movies = append(central.Movies, disk.Movies...)
	central.TvShows = append(central.TvShows, disk.TvShows...)

	RebuildIndexes(central)
	UpdateStatistics(central)
}

func dropDisk(entries []model.MovieEntry, label string) []model.MovieEntry {
	out := entries[:0:0]
	for _, e := range entries {
		if e.Disk != label {
			out = append(out, e)
		}
	}
	return out
}

func dropDiskTv(entries []model.TvShowEntry, label string) []model.TvShowEntry {
	out := entries[:0:0]
	for _, e := range entries {
		if e.Disk != label {
			out = append(out, e)
		}
	}
	return out
}

// RebuildIndexes recomputes all six secondary inverted indexes (by actor,
// director, genre, year, country, collection) from the current entry lists.
// Country names are normalized to uppercase ISO alpha-2 codes via
// grammar.CountryCode so that an NFO's free-text <country> value ("China",
// "United States of America") and a Search call's --country flag agree on
// the same key.
func RebuildIndexes(central *model.CentralIndex) {
	central.ByActor = map[string][]string{}
	central.ByDirector = map[string][]string{}
	central.ByGenre = map[string][]string{}
	central.ByYear = map[int][]string{}
	central.ByCountry = map[string][]string{}
	central.ByCollection = map[int64][]string{}
	if central.Collections == nil {
		central.Collections = map[int64]model.CollectionInfo{}
	}

	for _, m := range central.Movies {
		for _, a := range m.Meta.Actors {
			central.ByActor[a.Name] = append(central.ByActor[a.Name], m.ID)
		}
		for _, d := range m.Meta.Directors {
			central.ByDirector[d] = append(central.ByDirector[d], m.ID)
		}
		for _, g := range m.Meta.Genres {
			central.ByGenre[g] = append(central.ByGenre[g], m.ID)
		}
		if m.Meta.Year != 0 {
			central.ByYear[m.Meta.Year] = append(central.ByYear[m.Meta.Year], m.ID)
		}
		for _, c := range m.Meta.Countries {
			code := strings.ToUpper(grammar.CountryCode(c.Name))
			central.ByCountry[code] = append(central.ByCountry[code], m.ID)
		}
		if m.Meta.Collection != nil {
			cid := m.Meta.Collection.ID
			central.ByCollection[cid] = append(central.ByCollection[cid], m.ID)
			info := central.Collections[cid]
			info.ID = cid
			if info.Name == "" {
				info.Name = m.Meta.Collection.Name
			}
			already := false
			for _, id := range info.MovieIDs {
				if id == m.ID {
					already = true
					break
				}
			}
			if !already {
				info.MovieIDs = append(info.MovieIDs, m.ID)
				info.OwnedCount++
			}
			central.Collections[cid] = info
		}
	}

	for _, s := range central.TvShows {
		for _, a := range s.Meta.Actors {
			central.ByActor[a.Name] = append(central.ByActor[a.Name], s.ID)
		}
		for _, g := range s.Meta.Genres {
			central.ByGenre[g] = append(central.ByGenre[g], s.ID)
		}
		if s.Meta.Year != 0 {
			central.ByYear[s.Meta.Year] = append(central.ByYear[s.Meta.Year], s.ID)
		}
		for _, c := range s.Meta.Countries {
			code := strings.ToUpper(grammar.CountryCode(c.Name))
			central.ByCountry[code] = append(central.ByCountry[code], s.ID)
		}
	}
}

// UpdateStatistics recomputes Stats from the current entry lists and
// collection ownership data.
func UpdateStatistics(central *model.CentralIndex) {
	stats := model.Stats{
		TotalMovies:  len(central.Movies),
		TotalTvShows: len(central.TvShows),
		TotalDisks:   len(central.Disks),
		ByCountry:    map[string]int{},
		ByDecade:     map[string]int{},
	}
	for _, m := range central.Movies {
		stats.TotalSizeBytes += m.SizeBytes
		for _, c := range m.Meta.Countries {
			stats.ByCountry[c.Name]++
		}
		if m.Meta.Year != 0 {
			decade := fmt.Sprintf("%ds", (m.Meta.Year/10)*10)
			stats.ByDecade[decade]++
		}
	}
	for _, s := range central.TvShows {
		stats.TotalSizeBytes += s.SizeBytes
		for _, c := range s.Meta.Countries {
			stats.ByCountry[c.Name]++
		}
	}

	for _, c := range central.Collections {
		switch {
		case c.TotalInCollection > 0 && c.OwnedCount >= c.TotalInCollection:
			stats.CompleteCollections = append(stats.CompleteCollections, c.Name)
		case c.TotalInCollection == 0 && c.OwnedCount >= 2:
			stats.CompleteCollections = append(stats.CompleteCollections, c.Name)
		case c.TotalInCollection > 0 && c.OwnedCount > 0 && c.OwnedCount < c.TotalInCollection:
			stats.IncompleteCollections = append(stats.IncompleteCollections, c.Name)
		case c.TotalInCollection == 0 && c.OwnedCount == 1:
			stats.IncompleteCollections = append(stats.IncompleteCollections, c.Name)
		}
	}
	sort.Strings(stats.CompleteCollections)
	sort.Strings(stats.IncompleteCollections)

	central.Stats = stats
}

// MergeCentral folds src into dst for `backup import --merge`: disks are
// added if missing, and movies/shows are deduped by TMDB ID, preferring
// whatever dst already has. Indexes and statistics are rebuilt afterward.
func MergeCentral(dst, src *model.CentralIndex) {
	for label, disk := range src.Disks {
		if _, ok := dst.Disks[label]; !ok {
			dst.Disks[label] = disk
		}
	}

	existingMovieTmdb := map[int64]bool{}
	for _, m := range dst.Movies {
		if m.Meta.TmdbID != 0 {
			existingMovieTmdb[m.Meta.TmdbID] = true
		}
	}
	for _, m := range src.Movies {
		if m.Meta.TmdbID != 0 && existingMovieTmdb[m.Meta.TmdbID] {
			continue
		}
		dst.Movies = append(dst.Movies, m)
	}

	existingShowTmdb := map[int64]bool{}
	for _, s := range dst.TvShows {
		if s.Meta.TmdbID != 0 {
			existingShowTmdb[s.Meta.TmdbID] = true
		}
	}
	for _, s := range src.TvShows {
		if s.Meta.TmdbID != 0 && existingShowTmdb[s.Meta.TmdbID] {
			continue
		}
		dst.TvShows = append(dst.TvShows, s)
	}

	if dst.Collections == nil {
		dst.Collections = map[int64]model.CollectionInfo{}
	}
	for id, c := range src.Collections {
		if _, ok := dst.Collections[id]; !ok {
			dst.Collections[id] = c
		}
	}

	RebuildIndexes(dst)
	UpdateStatistics(dst)
}

// Filters narrows a Search call; zero values mean "don't filter on this".
type Filters struct {
	Title      string
	Actor      string
	Director   string
	Genre      string
	Country    string
	Collection string
	Year       int
	YearFrom   int
	YearTo     int
}

// Search intersects the central index's secondary inverted indexes across
// every non-empty filter, then applies the title substring filter last.
func Search(central *model.CentralIndex, f Filters) (movies []model.MovieEntry, shows []model.TvShowEntry, collections []model.CollectionInfo) {
	var movieIDs, showIDs map[string]bool
	haveFilter := false

	intersect := func(ids []string) {
		set := map[string]bool{}
		for _, id := range ids {
			set[id] = true
		}
		if !haveFilter {
			movieIDs, showIDs = set, cloneSet(set)
			haveFilter = true
			return
		}
		movieIDs = intersectSets(movieIDs, set)
		showIDs = intersectSets(showIDs, set)
	}

	if f.Actor != "" {
		intersect(lookupContains(central.ByActor, f.Actor))
	}
	if f.Director != "" {
		intersect(lookupContains(central.ByDirector, f.Director))
	}
	if f.Genre != "" {
		intersect(lookupContains(central.ByGenre, f.Genre))
	}
	if f.Country != "" {
		intersect(central.ByCountry[strings.ToUpper(f.Country)])
	}
	if f.Year != 0 {
		intersect(central.ByYear[f.Year])
	} else if f.YearFrom != 0 || f.YearTo != 0 {
		var ids []string
		for y := f.YearFrom; y <= f.YearTo; y++ {
			ids = append(ids, central.ByYear[y]...)
		}
		intersect(ids)
	}

	for _, m := range central.Movies {
		if haveFilter && !movieIDs[m.ID] {
			continue
		}
		if f.Title != "" && !titleMatches(m.Meta.Title, m.Meta.OriginalTitle, f.Title) {
			continue
		}
		movies = append(movies, m)
	}
	for _, s := range central.TvShows {
		if haveFilter && !showIDs[s.ID] {
			continue
		}
		if f.Title != "" && !titleMatches(s.Meta.Name, s.Meta.OriginalName, f.Title) {
			continue
		}
		shows = append(shows, s)
	}

	sort.Slice(movies, func(i, j int) bool { return movies[i].Meta.Year > movies[j].Meta.Year })
	sort.Slice(shows, func(i, j int) bool { return shows[i].Meta.Year > shows[j].Meta.Year })

	if f.Collection != "" {
		query := strings.ToLower(f.Collection)
		for _, c := range central.Collections {
			if strings.Contains(strings.ToLower(c.Name), query) {
				collections = append(collections, c)
			}
		}
	}
	return movies, shows, collections
}

func titleMatches(title, original, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(title), q) || strings.Contains(strings.ToLower(original), q)
}

func lookupContains(index map[string][]string, query string) []string {
	q := strings.ToLower(query)
	var ids []string
	for name, v := range index {
		if strings.Contains(strings.ToLower(name), q) {
			ids = append(ids, v...)
		}
	}
	return ids
}

func cloneSet(s map[string]bool) map[string]bool {
	out := make(map[string]bool, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

func intersectSets(a, b map[string]bool) map[string]bool {
	out := map[string]bool{}
	for k := range a {
		if b[k] {
			out[k] = true
		}
	}
	return out
}

// Summary renders a human-readable one-line digest of a central index,
// suitable for CLI status output.
func Summary(central *model.CentralIndex) string {
	return fmt.Sprintf("%d movies, %d TV shows, %d disks, %s",
		central.Stats.TotalMovies, central.Stats.TotalTvShows, central.Stats.TotalDisks,
		humanize.Bytes(uint64(central.Stats.TotalSizeBytes)))
}
