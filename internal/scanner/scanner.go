// Package scanner walks a source tree, classifies video files, and groups
// them by immediate parent directory for the identification pipeline.
package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jpixy/media-organizer/internal/model"
)

var videoExtensions = map[string]bool{
	".mkv": true, ".mp4": true, ".avi": true, ".mov": true, ".wmv": true,
	".m4v": true, ".ts": true, ".m2ts": true, ".flv": true, ".webm": true,
	".mpg": true, ".mpeg": true, ".vob": true, ".ogv": true, ".ogm": true,
	".divx": true, ".xvid": true, ".3gp": true, ".3g2": true, ".mts": true,
	".rm": true, ".rmvb": true, ".asf": true, ".f4v": true,
}

var extrasNames = map[string]bool{
	"extras": true, "extra": true, "featurettes": true,
	"behind the scenes": true, "deleted scenes": true, "making of": true,
	"bonus": true, "special features": true, "sample": true, "samples": true,
}

func isExtrasComponent(c string) bool {
	lower := strings.ToLower(c)
	if extrasNames[lower] {
		return true
	}
	for _, pat := range []string{".extras", "-extras", ".sample", "-sample"} {
		if strings.Contains(lower, pat) {
			return true
		}
	}
	return false
}

func isVideoExt(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

func looksLikeSample(filename string) bool {
	lower := strings.ToLower(filename)
	if !strings.Contains(lower, "sample") {
		return false
	}
	return !strings.Contains(lower, "sampler")
}

// Counts summarizes a scan.
type Counts struct {
	Videos    int
	Samples   int
	EmptyDirs int
}

// Result is the Scanner's output: classified files plus counts, sorted
// deterministically by path.
type Result struct {
	Videos    []model.VideoFile
	Samples   []model.VideoFile
	EmptyDirs []string
	Counts    Counts
}

// Group is all video files sharing one immediate parent directory — the
// identification unit for TV shows.
type Group struct {
	Dir    string
	Videos []model.VideoFile
}

// Scan recursively walks root (symlinks not followed), classifying each
// file per spec §4.C.
func Scan(root string) (Result, error) {
	var result Result
	dirHasContent := map[string]bool{}
	dirHasVideo := map[string]bool{}

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return nil
		}

		rel, _ := filepath.Rel(root, path)
		components := strings.Split(rel, string(filepath.Separator))
		parentDir := filepath.Dir(path)

		for _, c := range components[:len(components)-1] {
			if isExtrasComponent(c) {
				dirHasContent[parentDir] = true
				return nil
			}
		}

		dirHasContent[parentDir] = true

		if !isVideoExt(path) {
			return nil
		}

		vf := model.VideoFile{
			Path:    path,
			Name:    info.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Dir:     parentDir,
		}

		if looksLikeSample(info.Name()) {
			vf.IsSample = true
			result.Samples = append(result.Samples, vf)
			dirHasVideo[parentDir] = true
			return nil
		}

		dirHasVideo[parentDir] = true
		result.Videos = append(result.Videos, vf)
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() {
			return nil
		}
		if !dirHasVideo[path] && !dirHasContent[path] {
			result.EmptyDirs = append(result.EmptyDirs, path)
		}
		return nil
	})

	sort.Slice(result.Videos, func(i, j int) bool { return result.Videos[i].Path < result.Videos[j].Path })
	sort.Slice(result.Samples, func(i, j int) bool { return result.Samples[i].Path < result.Samples[j].Path })
	sort.Strings(result.EmptyDirs)

	result.Counts = Counts{
		Videos:    len(result.Videos),
		Samples:   len(result.Samples),
		EmptyDirs: len(result.EmptyDirs),
	}
	return result, nil
}

// GroupByParent buckets videos by their immediate parent directory, sorted
// deterministically by directory path and, within a directory, by file
// path.
func GroupByParent(videos []model.VideoFile) []Group {
	byDir := map[string][]model.VideoFile{}
	for _, v := range videos {
		byDir[v.Dir] = append(byDir[v.Dir], v)
	}
	dirs := make([]string, 0, len(byDir))
	for d := range byDir {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	groups := make([]Group, 0, len(dirs))
	for _, d := range dirs {
		vs := byDir[d]
		sort.Slice(vs, func(i, j int) bool { return vs[i].Path < vs[j].Path })
		groups = append(groups, Group{Dir: d, Videos: vs})
	}
	return groups
}
