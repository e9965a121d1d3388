// Package grammar implements the pure string-parsing rules that turn
// organized and unorganized filenames and directory names into
// identification evidence. No function in this package performs I/O.
package grammar

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Organized-name patterns. These recognize the system's own canonical
// bracket-and-ID convention, produced by a previous run of this tool.
var (
	organizedFolderRe = regexp.MustCompile(
		`^\[(.+?)\]\((\d{4})\)-tt(\d{7,8})-tmdb(\d+)`)
	organizedFolderNoImdbRe = regexp.MustCompile(
		`^\[(.+?)\]\((\d{4})\)-tmdb(\d+)`)
	organizedFolderLegacyRe = regexp.MustCompile(
		`-tt(\d+)-(\d+)$`)

	organizedTVTwoTitleRe = regexp.MustCompile(
		`^\[(.+?)\]\[(.+?)\]-S(\d{1,2})E(\d+)-\[(.*?)\]-`)
	organizedTVOneTitleRe = regexp.MustCompile(
		`^\[(.+?)\]-S(\d{1,2})E(\d+)-\[(.*?)\]-`)

	organizedMovieTwoTitleRe = regexp.MustCompile(
		`^\[(.+?)\]\[(.+?)\]\((\d{4})\)-(?:tt(\d+)-)?tmdb(\d+)`)
	organizedMovieOneTitleRe = regexp.MustCompile(
		`^\[(.+?)\]\((\d{4})\)-(?:tt(\d+)-)?tmdb(\d+)`)
)

// OrganizedFolder is the result of matching the organized-folder convention.
type OrganizedFolder struct {
	TmdbID int64
	ImdbID string
	Title  string
	Year   int
}

// ParseOrganizedFolder recognizes "[<title>](<year>)-tt<digits>-tmdb<digits>"
// and the imdb-less variant. Confidence 1.0 on match.
func ParseOrganizedFolder(name string) (OrganizedFolder, bool) {
	if m := organizedFolderRe.FindStringSubmatch(name); m != nil {
		year, _ := strconv.Atoi(m[2])
		tmdb, _ := strconv.ParseInt(m[4], 10, 64)
		return OrganizedFolder{TmdbID: tmdb, ImdbID: "tt" + m[3], Title: m[1], Year: year}, true
	}
	if m := organizedFolderNoImdbRe.FindStringSubmatch(name); m != nil {
		year, _ := strconv.Atoi(m[2])
		tmdb, _ := strconv.ParseInt(m[3], 10, 64)
		return OrganizedFolder{TmdbID: tmdb, Title: m[1], Year: year}, true
	}
	return OrganizedFolder{}, false
}

// ParseOrganizedFolderLegacy recognizes the legacy trailing
// "-tt<digits>-<tmdb digits>" suffix convention.
func ParseOrganizedFolderLegacy(name string) (imdbID string, tmdbID int64, ok bool) {
	m := organizedFolderLegacyRe.FindStringSubmatch(name)
	if m == nil {
		return "", 0, false
	}
	tmdb, _ := strconv.ParseInt(m[2], 10, 64)
	return "tt" + m[1], tmdb, true
}

// OrganizedTV is the result of matching the organized TV filename convention.
type OrganizedTV struct {
	Title         string
	OriginalTitle string
	Season        int
	Episode       int
	EpisodeTitle  string
}

// ParseOrganizedTVFilename recognizes
// "[<title>]-S<dd>E<dd+>-[<episode>]-..." and the two-title variant
// "[<title>][<orig>]-S<dd>E<dd+>-[<episode>]-...".
func ParseOrganizedTVFilename(name string) (OrganizedTV, bool) {
	if m := organizedTVTwoTitleRe.FindStringSubmatch(name); m != nil {
		season, _ := strconv.Atoi(m[3])
		ep, _ := strconv.Atoi(m[4])
		return OrganizedTV{Title: m[1], OriginalTitle: m[2], Season: season, Episode: ep, EpisodeTitle: m[5]}, true
	}
	if m := organizedTVOneTitleRe.FindStringSubmatch(name); m != nil {
		season, _ := strconv.Atoi(m[2])
		ep, _ := strconv.Atoi(m[3])
		return OrganizedTV{Title: m[1], Season: season, Episode: ep, EpisodeTitle: m[4]}, true
	}
	return OrganizedTV{}, false
}

// OrganizedMovie is the result of matching the organized movie filename
// convention.
type OrganizedMovie struct {
	Title         string
	OriginalTitle string
	Year          int
	ImdbID        string
	TmdbID        int64
}

// ParseOrganizedMovieFilename recognizes
// "[<orig>][<loc>](<year>)-(tt<digits>-)?tmdb<digits>-..." and the
// single-title variant.
func ParseOrganizedMovieFilename(name string) (OrganizedMovie, bool) {
	if m := organizedMovieTwoTitleRe.FindStringSubmatch(name); m != nil {
		year, _ := strconv.Atoi(m[3])
		tmdb, _ := strconv.ParseInt(m[5], 10, 64)
		var imdb string
		if m[4] != "" {
			imdb = "tt" + m[4]
		}
		return OrganizedMovie{Title: m[2], OriginalTitle: m[1], Year: year, ImdbID: imdb, TmdbID: tmdb}, true
	}
	if m := organizedMovieOneTitleRe.FindStringSubmatch(name); m != nil {
		year, _ := strconv.Atoi(m[2])
		tmdb, _ := strconv.ParseInt(m[4], 10, 64)
		var imdb string
		if m[3] != "" {
			imdb = "tt" + m[3]
		}
		return OrganizedMovie{Title: m[1], Year: year, ImdbID: imdb, TmdbID: tmdb}, true
	}
	return OrganizedMovie{}, false
}

// --- ID sniffer ---

var (
	imdbIDRe = regexp.MustCompile(`tt\d{7,8}`)
	tmdbIDRe = regexp.MustCompile(`tmdb(\d+)`)
)

// SniffIDs walks the filename and the ancestor path components (deepest
// first) collecting the first tt<digits> and tmdb<digits> tokens found,
// stopping as soon as both are located.
func SniffIDs(pathComponents []string) (imdbID string, tmdbID int64) {
	return sniffIDsFrom(pathComponents, 0)
}

// SniffIDsFrom is the alternate-start-directory variant, used to skip an
// invalid season folder and resume the walk at a given index.
func SniffIDsFrom(pathComponents []string, startIdx int) (imdbID string, tmdbID int64) {
	return sniffIDsFrom(pathComponents, startIdx)
}

func sniffIDsFrom(components []string, startIdx int) (string, int64) {
	var imdb string
	var tmdb int64
	for i := len(components) - 1; i >= startIdx; i-- {
		c := components[i]
		if imdb == "" {
			if m := imdbIDRe.FindString(c); m != "" {
				imdb = m
			}
		}
		if tmdb == 0 {
			if m := tmdbIDRe.FindStringSubmatch(c); m != nil {
				v, _ := strconv.ParseInt(m[1], 10, 64)
				tmdb = v
			}
		}
		if imdb != "" && tmdb != 0 {
			break
		}
	}
	return imdb, tmdb
}

// --- Season extractor ---

var chineseSeasonNumerals = map[string]int{
	"一": 1, "二": 2, "三": 3, "四": 4, "五": 5, "六": 6, "七": 7, "八": 8,
	"九": 9, "十": 10, "十一": 11, "十二": 12, "十三": 13, "十四": 14, "十五": 15,
}

var (
	seasonArabicRe    = regexp.MustCompile(`(?i)\bS(\d{1,2})\b`)
	seasonWordRe      = regexp.MustCompile(`(?i)Season\s*(\d{1,2})`)
	seasonChineseRe   = regexp.MustCompile(`第([一二三四五六七八九十]{1,3}|\d{1,2})[季部]`)
)

// ExtractSeason recognizes Arabic S\d{1,2}, "Season \d+", Chinese 第N季 and
// 第N部, and Chinese numeral seasons 第一季..第十五季.
func ExtractSeason(s string) (int, bool) {
	if m := seasonChineseRe.FindStringSubmatch(s); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n, true
		}
		if n, ok := chineseSeasonNumerals[m[1]]; ok {
			return n, true
		}
	}
	if m := seasonArabicRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, true
	}
	if m := seasonWordRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, true
	}
	return 0, false
}

// --- Episode extractor ---

var (
	episodeSERe         = regexp.MustCompile(`(?i)S(\d{1,2})E(\d{1,3})`)
	episodeSeasonWordRe = regexp.MustCompile(`(?i)season\s*(\d{1,2}).*episode\s*(\d{1,3})`)
	episodeBareRe       = regexp.MustCompile(`(?i)\bE(?:P)?(\d{1,3})\b`)
	episodeChineseRe    = regexp.MustCompile(`第(\d{1,3})集`)
	episodeLeadingNumRe = regexp.MustCompile(`^(\d{1,3})\b`)
)

// EpisodeInfo is the result of the episode extractor cascade.
type EpisodeInfo struct {
	Season  int // 0 if not determined; leading-number heuristic defaults to 1
	Episode int
}

// ExtractEpisode runs the 5-pattern cascade documented in spec §4.A: SxxExx,
// the "season X episode Y" prose form, bare Exx/EPxx, 第N集, and a
// leading-number heuristic bounded to [1,999] that defaults season to 1
// (e.g. "01 4K.mp4" -> episode 1).
func ExtractEpisode(filename string) (EpisodeInfo, bool) {
	if m := episodeSERe.FindStringSubmatch(filename); m != nil {
		s, _ := strconv.Atoi(m[1])
		e, _ := strconv.Atoi(m[2])
		return EpisodeInfo{Season: s, Episode: e}, true
	}
	if m := episodeSeasonWordRe.FindStringSubmatch(filename); m != nil {
		s, _ := strconv.Atoi(m[1])
		e, _ := strconv.Atoi(m[2])
		return EpisodeInfo{Season: s, Episode: e}, true
	}
	if m := episodeBareRe.FindStringSubmatch(filename); m != nil {
		e, _ := strconv.Atoi(m[1])
		return EpisodeInfo{Episode: e}, true
	}
	if m := episodeChineseRe.FindStringSubmatch(filename); m != nil {
		e, _ := strconv.Atoi(m[1])
		return EpisodeInfo{Episode: e}, true
	}
	base := strings.TrimSuffix(filename, extOf(filename))
	if m := episodeLeadingNumRe.FindStringSubmatch(base); m != nil {
		e, _ := strconv.Atoi(m[1])
		if e >= 1 && e <= 999 {
			return EpisodeInfo{Season: 1, Episode: e}, true
		}
	}
	return EpisodeInfo{}, false
}

func extOf(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i:]
	}
	return ""
}

// --- Directory classifier ---

// DirectoryType discriminates the directory classifier's result.
type DirectoryType string

const (
	DirOrganized DirectoryType = "Organized"
	DirSeason    DirectoryType = "Season"
	DirQuality   DirectoryType = "Quality"
	DirCategory  DirectoryType = "Category"
	DirTitle     DirectoryType = "Title"
	DirUnknown   DirectoryType = "Unknown"
)

// CategoryType is the Category directory sub-classification.
type CategoryType string

const (
	CategoryRegion CategoryType = "Region"
	CategoryYear   CategoryType = "Year"
	CategoryGenre  CategoryType = "Genre"
	CategorySeries CategoryType = "Series"
	CategoryPerson CategoryType = "Person"
)

// ClassifiedDir is the directory classifier's output.
type ClassifiedDir struct {
	Type     DirectoryType
	Season   int
	Category CategoryType
	Title    TitleParts
	Year     int
}

var qualitySubstrings = []string{
	"1080p", "720p", "2160p", "4k", "hdr", "bluray", "web-dl", "webdl",
	"hdtv", "remux", "内封", "外挂", "字幕",
}

func isQualityDirectory(name string) bool {
	if len([]rune(name)) >= 20 {
		return false
	}
	lower := strings.ToLower(name)
	for _, q := range qualitySubstrings {
		if strings.Contains(lower, q) {
			return true
		}
	}
	return false
}

var (
	regionNames = map[string]bool{
		"china": true, "japan": true, "korea": true, "usa": true, "uk": true,
		"france": true, "中国": true, "日本": true, "韩国": true, "美国": true,
	}
	genreNames = map[string]bool{
		"action": true, "comedy": true, "drama": true, "horror": true,
		"animation": true, "documentary": true, "动作": true, "喜剧": true,
		"剧情": true, "恐怖": true, "动画": true, "纪录片": true,
	}
	yearOnlyRe = regexp.MustCompile(`^\d{4}$`)
)

func classifyAsCategory(name string) (CategoryType, bool) {
	lower := strings.ToLower(name)
	if yearOnlyRe.MatchString(name) {
		return CategoryYear, true
	}
	if regionNames[lower] {
		return CategoryRegion, true
	}
	if genreNames[lower] {
		return CategoryGenre, true
	}
	return "", false
}

var (
	titleYearParenRe  = regexp.MustCompile(`^(.+?)\s*\((\d{4})\)$`)
	titleYearDottedRe = regexp.MustCompile(`^(.+?)[. _-](\d{4})$`)
)

func hasHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// ExtractTitleFromDirname runs the 3-pattern cascade: "Title(Year)",
// "Title.Year"-dotted, or (fallback) the whole name if it contains CJK.
func ExtractTitleFromDirname(name string) (title string, year int, ok bool) {
	if m := titleYearParenRe.FindStringSubmatch(name); m != nil {
		y, _ := strconv.Atoi(m[2])
		return strings.TrimSpace(m[1]), y, true
	}
	if m := titleYearDottedRe.FindStringSubmatch(name); m != nil {
		y, _ := strconv.Atoi(m[2])
		return strings.TrimSpace(m[1]), y, true
	}
	if hasHan(name) {
		return name, 0, true
	}
	return "", 0, false
}

// ClassifyDirectory dispatches in priority order: Organized > Season >
// Quality > Category > Title > Unknown.
func ClassifyDirectory(name string) ClassifiedDir {
	if _, ok := ParseOrganizedFolder(name); ok {
		return ClassifiedDir{Type: DirOrganized}
	}
	if s, ok := ExtractSeason(name); ok {
		return ClassifiedDir{Type: DirSeason, Season: s}
	}
	if isQualityDirectory(name) {
		return ClassifiedDir{Type: DirQuality}
	}
	if cat, ok := classifyAsCategory(name); ok {
		return ClassifiedDir{Type: DirCategory, Category: cat}
	}
	if title, year, ok := ExtractTitleFromDirname(name); ok {
		return ClassifiedDir{Type: DirTitle, Title: SplitTitle(title), Year: year}
	}
	return ClassifiedDir{Type: DirUnknown}
}

// --- Title splitter ---

// TitleParts is a mixed string partitioned into its CJK and ASCII halves.
type TitleParts struct {
	Chinese string
	English string
}

const titlePunct = "：·"

// SplitTitle partitions a mixed string into CJK and ASCII-word halves.
// CJK range is U+3400-U+4DBF and U+4E00-U+9FFF, plus the punctuation
// "：·".
func SplitTitle(s string) TitleParts {
	var cjk, ascii strings.Builder
	for _, r := range s {
		switch {
		case isCJK(r) || strings.ContainsRune(titlePunct, r):
			cjk.WriteRune(r)
		case r == ' ' || unicode.IsLetter(r) || unicode.IsDigit(r) ||
			r == '-' || r == '\'' || r == ':':
			ascii.WriteRune(r)
		}
	}
	return TitleParts{
		Chinese: strings.TrimSpace(cjk.String()),
		English: strings.TrimSpace(normalizeSpaces(ascii.String())),
	}
}

func isCJK(r rune) bool {
	return (r >= 0x3400 && r <= 0x4DBF) || (r >= 0x4E00 && r <= 0x9FFF)
}

func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// --- Country table ---

// countryISO is a closed table for the commonly encountered countries;
// CountryCode passes through unrecognized names unchanged.
var countryISO = map[string]string{
	"china": "CN", "中国": "CN", "japan": "JP", "日本": "JP",
	"south korea": "KR", "korea": "KR", "韩国": "KR",
	"united states of america": "US", "usa": "US", "united states": "US",
	"united kingdom": "GB", "uk": "GB",
	"france": "FR", "germany": "DE", "hong kong": "HK", "taiwan": "TW",
	"canada": "CA", "india": "IN", "australia": "AU", "italy": "IT",
	"spain": "ES", "thailand": "TH",
}

// CountryCode looks up the ISO alpha-2 code for a country name, falling
// back to the name itself (passthrough) when not found.
func CountryCode(name string) string {
	if code, ok := countryISO[strings.ToLower(name)]; ok {
		return code
	}
	return name
}

// langToCountryCode maps an original_language code to the preferred
// production-country ISO code for folder naming.
var langToCountryCode = map[string]string{
	"ko": "KR", "ja": "JP", "zh": "CN", "en": "US", "fr": "FR", "de": "DE",
	"es": "ES", "it": "IT", "hi": "IN", "th": "TH",
}

// PreferredCountryCode resolves the language->country table used by the
// country-folder selection rule in §4.D.
func PreferredCountryCode(lang string) (string, bool) {
	code, ok := langToCountryCode[lang]
	return code, ok
}

// --- minimal filename / shortened query helpers (identification pipeline) ---

// IsMinimalFilename reports whether a title is so short or so
// identifier-sparse that metadata-service search is unlikely to help
// without additional evidence (e.g. "2024 SP").
func IsMinimalFilename(filename string) bool {
	name := strings.ToLower(filename)
	nameNoExt := name
	if i := strings.LastIndex(name, "."); i >= 0 {
		nameNoExt = name[:i]
	}
	alnum := 0
	for _, r := range nameNoExt {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	if alnum <= 8 {
		return true
	}
	if strings.Contains(name, "sp") || strings.Contains(name, "ova") || strings.Contains(name, "特别") {
		var digits strings.Builder
		for _, r := range name {
			if r >= '0' && r <= '9' {
				digits.WriteRune(r)
			}
		}
		if digits.Len() == 4 {
			if y, err := strconv.Atoi(digits.String()); err == nil && y >= 1990 && y <= 2030 {
				return true
			}
		}
	}
	return false
}

var shortenDelims = []string{" - ", " – ", "：", ":", " 钟", " 与", " 和"}

// AddShortenedQueries appends shorter, more-likely-to-match variants of a
// long title to queries: splits on common delimiters, and for titles over
// 20 characters also tries the first two whitespace-separated tokens.
func AddShortenedQueries(queries []string, title string) []string {
	contains := func(list []string, s string) bool {
		for _, q := range list {
			if q == s {
				return true
			}
		}
		return false
	}
	for _, delim := range shortenDelims {
		if pos := strings.Index(title, delim); pos >= 0 {
			shortened := strings.TrimSpace(title[:pos])
			if len([]rune(shortened)) >= 4 && !contains(queries, shortened) {
				queries = append(queries, shortened)
			}
		}
	}
	if len([]rune(title)) > 20 {
		parts := strings.Fields(title)
		if len(parts) >= 2 {
			n := 2
			if len(parts) < n {
				n = len(parts)
			}
			shortened := strings.Join(parts[:n], " ")
			if len([]rune(shortened)) >= 4 && !contains(queries, shortened) {
				queries = append(queries, shortened)
			}
		}
	}
	return queries
}

// NormalizeTitle lowercases and strips all non-alphanumeric characters,
// used for exact-match comparisons in metadata-service result scoring.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// SanitizeFilename replaces filesystem-illegal characters with '_'.
func SanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
}
