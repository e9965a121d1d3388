// Package techprobe adapts the external ffprobe tool (and a filename
// fallback) into the normalized model.TechMeta shape.
package techprobe

import (
	"context"
	"encoding/json"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/jpixy/media-organizer/internal/model"
)

// Prober runs ffprobe against a file and normalizes its output.
type Prober struct {
	// FfprobePath overrides the binary looked up on PATH; tests set this
	// to a stub.
	FfprobePath string
}

// New returns a Prober that invokes "ffprobe" from PATH.
func New() *Prober { return &Prober{FfprobePath: "ffprobe"} }

type ffprobeFormat struct {
	FormatName string `json:"format_name"`
}

type ffprobeStream struct {
	CodecType     string `json:"codec_type"`
	CodecName     string `json:"codec_name"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	BitsPerRawSample string `json:"bits_per_raw_sample"`
	Channels      int    `json:"channels"`
}

type ffprobeOutput struct {
	Format  ffprobeFormat    `json:"format"`
	Streams []ffprobeStream  `json:"streams"`
}

// Probe runs "ffprobe -v quiet -print_format json -show_format
// -show_streams <path>" and parses the result. On any failure (binary
// missing, non-zero exit, malformed JSON) it returns an all-unknown
// TechMeta rather than an error, per spec §4.B.
func (p *Prober) Probe(ctx context.Context, path string) model.TechMeta {
	unknown := model.TechMeta{
		Resolution:    model.UnknownTag,
		Container:     model.UnknownCap,
		VideoCodec:    model.UnknownTag,
		BitDepth:      model.UnknownTag,
		AudioCodec:    model.UnknownTag,
		ChannelLayout: model.UnknownTag,
	}

	bin := p.FfprobePath
	if bin == "" {
		bin = "ffprobe"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return unknown
	}

	cmd := exec.CommandContext(ctx, bin, "-v", "quiet", "-print_format", "json",
		"-show_format", "-show_streams", path)
	out, err := cmd.Output()
	if err != nil {
		return unknown
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return unknown
	}

	meta := unknown
	var videoStream, audioStream *ffprobeStream
	for i := range parsed.Streams {
		s := &parsed.Streams[i]
		if videoStream == nil && s.CodecType == "video" {
			videoStream = s
		}
		if audioStream == nil && s.CodecType == "audio" {
			audioStream = s
		}
	}
	if videoStream != nil {
		meta.Resolution = resolutionFromHeight(videoStream.Height)
		if videoStream.CodecName != "" {
			meta.VideoCodec = videoStream.CodecName
		}
		if bits, err := strconv.Atoi(videoStream.BitsPerRawSample); err == nil && bits > 0 {
			meta.BitDepth = strconv.Itoa(bits)
		}
	}
	if audioStream != nil {
		if audioStream.CodecName != "" {
			meta.AudioCodec = audioStream.CodecName
		}
		meta.ChannelLayout = channelLayout(audioStream.Channels)
	}
	if parsed.Format.FormatName != "" {
		meta.Container = containerFromFormatName(parsed.Format.FormatName)
	}
	return meta
}

// resolutionFromHeight uses fixed pixel-height thresholds: >=2160 ->
// "2160p", >=1080 -> "1080p", >=720 -> "720p", >=480 -> "480p", else
// "<h>p".
func resolutionFromHeight(h int) string {
	switch {
	case h <= 0:
		return model.UnknownTag
	case h >= 2160:
		return "2160p"
	case h >= 1080:
		return "1080p"
	case h >= 720:
		return "720p"
	case h >= 480:
		return "480p"
	default:
		return strconv.Itoa(h) + "p"
	}
}

// channelLayout maps channel count: 1->"1.0", 2->"2.0", 6->"5.1",
// 8->"7.1", else "<n>.0".
func channelLayout(n int) string {
	switch n {
	case 0:
		return model.UnknownTag
	case 1:
		return "1.0"
	case 2:
		return "2.0"
	case 6:
		return "5.1"
	case 8:
		return "7.1"
	default:
		return strconv.Itoa(n) + ".0"
	}
}

func containerFromFormatName(formatName string) string {
	lower := strings.ToLower(formatName)
	switch {
	case strings.Contains(lower, "matroska"):
		return "BluRay"
	case strings.Contains(lower, "mp4"):
		return "WEB-DL"
	default:
		return formatName
	}
}

var (
	filenameResRe = regexp.MustCompile(`(?i)\b(2160p|1080p|720p|480p)\b`)
	filenameContainerRe = regexp.MustCompile(`(?i)\b(BluRay|WEB-DL|WEBDL|HDTV|REMUX)\b`)
	filenameVCodecRe = regexp.MustCompile(`(?i)\b(hevc|h265|x265|h264|x264|avc|av1)\b`)
	filenameBitRe    = regexp.MustCompile(`(?i)\b(8|10|12)bit\b`)
	filenameACodecRe = regexp.MustCompile(`(?i)\b(truehd|dts-hd|dts|aac|ac3|ddp|atmos|flac)\b`)
	filenameChanRe   = regexp.MustCompile(`\b(7\.1|5\.1|2\.0|1\.0)\b`)
)

// FromFilename extracts the same TechMeta fields from a filename, used as
// the fallback when probing fails or as the primary source when merged
// against probe output.
func FromFilename(name string) model.TechMeta {
	meta := model.TechMeta{
		Resolution:    model.UnknownTag,
		Container:     model.UnknownCap,
		VideoCodec:    model.UnknownTag,
		BitDepth:      model.UnknownTag,
		AudioCodec:    model.UnknownTag,
		ChannelLayout: model.UnknownTag,
	}
	if m := filenameResRe.FindString(name); m != "" {
		meta.Resolution = strings.ToLower(m)
	}
	if m := filenameContainerRe.FindString(name); m != "" {
		meta.Container = m
	}
	if m := filenameVCodecRe.FindString(name); m != "" {
		meta.VideoCodec = strings.ToLower(m)
	}
	if m := filenameBitRe.FindStringSubmatch(name); m != nil {
		meta.BitDepth = m[1]
	}
	if m := filenameACodecRe.FindString(name); m != "" {
		meta.AudioCodec = strings.ToUpper(m)
	}
	if m := filenameChanRe.FindString(name); m != "" {
		meta.ChannelLayout = m
	}
	return meta
}
