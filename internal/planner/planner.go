package planner

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jpixy/media-organizer/internal/model"
)

// Options configures plan generation.
type Options struct {
	TargetRoot     string
	GenerateNFO    bool
	DownloadPoster bool
	PosterSize     string // e.g. "original"; defaults applied by caller
}

// ResolvedMovie is one identified (or failed) movie video ready for
// target-path composition.
type ResolvedMovie struct {
	Video     model.VideoFile
	Tech      model.TechMeta
	Candidate model.CandidateMeta
	Meta      *model.MovieMeta // nil if identification failed
	Reason    string           // populated when Meta is nil
	Extras    []model.VideoFile
}

// ResolvedEpisode is one identified (or failed) TV episode video ready for
// target-path composition.
type ResolvedEpisode struct {
	Video     model.VideoFile
	Tech      model.TechMeta
	Candidate model.CandidateMeta
	Show      *model.ShowMeta
	Episode   *model.EpisodeMeta
	Reason    string
}

// BuildMoviePlan composes target paths and operations for a batch of
// identified movies, per spec §4.E.
func BuildMoviePlan(movies []ResolvedMovie, samples []model.VideoFile, opts Options) (*model.Plan, error) {
	plan := &model.Plan{
		Version:    1,
		CreatedAt:  time.Now(),
		MediaType:  model.MediaMovies,
		SourcePath: "",
		TargetPath: opts.TargetRoot,
		Samples:    samples,
	}

	for _, rm := range movies {
		if rm.Meta == nil {
			plan.Unknown = append(plan.Unknown, model.UnknownItem{Source: rm.Video, Reason: rm.Reason})
			continue
		}
		item, err := buildMovieItem(rm, opts)
		if err != nil {
			plan.Unknown = append(plan.Unknown, model.UnknownItem{Source: rm.Video, Reason: err.Error()})
			continue
		}
		plan.Items = append(plan.Items, item)
	}

	if err := checkDuplicateTargets(plan.Items); err != nil {
		return nil, err
	}
	return plan, nil
}

// BuildShowPlan composes target paths and operations for a batch of
// identified TV episodes, per spec §4.E.
func BuildShowPlan(episodes []ResolvedEpisode, samples []model.VideoFile, opts Options) (*model.Plan, error) {
	plan := &model.Plan{
		Version:    1,
		CreatedAt:  time.Now(),
		MediaType:  model.MediaTVShows,
		SourcePath: "",
		TargetPath: opts.TargetRoot,
		Samples:    samples,
	}

	for _, re := range episodes {
		if re.Show == nil || re.Episode == nil {
			plan.Unknown = append(plan.Unknown, model.UnknownItem{Source: re.Video, Reason: re.Reason})
			continue
		}
		item, err := buildEpisodeItem(re, opts)
		if err != nil {
			plan.Unknown = append(plan.Unknown, model.UnknownItem{Source: re.Video, Reason: err.Error()})
			continue
		}
		plan.Items = append(plan.Items, item)
	}

	if err := checkDuplicateTargets(plan.Items); err != nil {
		return nil, err
	}
	return plan, nil
}

func buildMovieItem(rm ResolvedMovie, opts Options) (model.PlanItem, error) {
	countryFolder := CountryFolder(rm.Meta.Countries, rm.Meta.OriginalLanguage)
	folder := MovieFolderName(rm.Meta)
	folderPath := filepath.Join(opts.TargetRoot, countryFolder, folder)

	ext := strings.TrimPrefix(filepath.Ext(rm.Video.Name), ".")
	filename := MovieFilename(rm.Meta, "", ext, rm.Tech)
	fullPath := filepath.Join(folderPath, filename)

	target := model.TargetInfo{
		Folder:   folderPath,
		Filename: filename,
		FullPath: fullPath,
	}

	var ops []model.Operation
	ops = append(ops, model.Operation{Op: model.OpMkdir, To: folderPath})
	ops = append(ops, model.Operation{Op: model.OpMove, From: rm.Video.Path, To: fullPath})

	if opts.GenerateNFO {
		nfoPath := filepath.Join(folderPath, "movie.nfo")
		target.NfoName = "movie.nfo"
		ops = append(ops, model.Operation{Op: model.OpCreate, To: nfoPath, ContentRef: "nfo"})
	}
	if opts.DownloadPoster && len(rm.Meta.PosterURLs) > 0 {
		posterPath := filepath.Join(folderPath, "poster.jpg")
		target.PosterName = "poster.jpg"
		ops = append(ops, model.Operation{Op: model.OpDownload, To: posterPath, URL: rm.Meta.PosterURLs[0]})
	}

	for _, extra := range rm.Extras {
		extraDest := filepath.Join(folderPath, extrasSubfolder(extra), extra.Name)
		ops = append(ops, model.Operation{Op: model.OpMove, From: extra.Path, To: extraDest})
	}

	return model.PlanItem{
		ID:         planItemID(rm.Video.Path),
		Status:     model.StatusPending,
		Source:     rm.Video,
		Parsed:     model.ParsedInfo{Candidate: rm.Candidate},
		Movie:      rm.Meta,
		Tech:       rm.Tech,
		Target:     target,
		Operations: ops,
	}, nil
}

func buildEpisodeItem(re ResolvedEpisode, opts Options) (model.PlanItem, error) {
	countryFolder := CountryFolder(re.Show.Countries, re.Show.OriginalLanguage)
	showFolder := ShowFolderName(re.Show)
	showPath := filepath.Join(opts.TargetRoot, countryFolder, showFolder)
	seasonPath := filepath.Join(showPath, SeasonFolder(re.Episode.SeasonNumber))

	ext := strings.TrimPrefix(filepath.Ext(re.Video.Name), ".")
	filename := EpisodeFilename(re.Show, re.Episode, ext, re.Tech)
	fullPath := filepath.Join(seasonPath, filename)

	target := model.TargetInfo{
		Folder:   seasonPath,
		Filename: filename,
		FullPath: fullPath,
	}

	var ops []model.Operation
	ops = append(ops, model.Operation{Op: model.OpMkdir, To: seasonPath})
	ops = append(ops, model.Operation{Op: model.OpMove, From: re.Video.Path, To: fullPath})

	if opts.GenerateNFO {
		// tvshow.nfo lives once per show, regardless of episode count;
		// the Executor's Create handler is a no-op if the target exists.
		nfoPath := filepath.Join(showPath, "tvshow.nfo")
		target.NfoName = "tvshow.nfo"
		ops = append(ops, model.Operation{Op: model.OpMkdir, To: showPath})
		ops = append(ops, model.Operation{Op: model.OpCreate, To: nfoPath, ContentRef: "nfo"})

		episodeNfoPath := filepath.Join(seasonPath, strings.TrimSuffix(filename, filepath.Ext(filename))+".nfo")
		ops = append(ops, model.Operation{Op: model.OpCreate, To: episodeNfoPath, ContentRef: "episode-nfo"})
	}
	if opts.DownloadPoster && len(re.Show.PosterURLs) > 0 {
		posterPath := filepath.Join(showPath, "poster.jpg")
		target.PosterName = "poster.jpg"
		ops = append(ops, model.Operation{Op: model.OpDownload, To: posterPath, URL: re.Show.PosterURLs[0]})
	}

	return model.PlanItem{
		ID:         planItemID(re.Video.Path),
		Status:     model.StatusPending,
		Source:     re.Video,
		Parsed:     model.ParsedInfo{Candidate: re.Candidate},
		Show:       re.Show,
		Episode:    re.Episode,
		Tech:       re.Tech,
		Target:     target,
		Operations: ops,
	}, nil
}

func extrasSubfolder(v model.VideoFile) string {
	if v.IsSample {
		return "Sample"
	}
	return "Extras"
}

// checkDuplicateTargets implements §4.E.8's pre-commit safety pass: no two
// Move operations across the whole item set may share a `to` path.
func checkDuplicateTargets(items []model.PlanItem) error {
	seen := map[string][]string{}
	for _, item := range items {
		for _, op := range item.Operations {
			if op.Op != model.OpMove {
				continue
			}
			seen[op.To] = append(seen[op.To], op.From)
		}
	}

	var conflicts []string
	for to, froms := range seen {
		if len(froms) > 1 {
			conflicts = append(conflicts, fmt.Sprintf("%s <- [%s]", to, strings.Join(froms, ", ")))
		}
	}
	if len(conflicts) == 0 {
		return nil
	}
	sort.Strings(conflicts)
	return fmt.Errorf("%w: %s", model.ErrDuplicateTarget, strings.Join(conflicts, "; "))
}

func planItemID(path string) string {
	return fmt.Sprintf("item-%08x", fnv32(path))
}

func fnv32(s string) uint32 {
	const prime32 = 16777619
	hash := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= prime32
	}
	return hash
}
