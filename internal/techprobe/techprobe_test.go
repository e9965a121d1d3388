package techprobe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jpixy/media-organizer/internal/model"
)

func TestProbeMissingBinaryReturnsUnknown(t *testing.T) {
	p := &Prober{FfprobePath: "this-binary-does-not-exist-xyz"}
	meta := p.Probe(context.Background(), "/tmp/whatever.mkv")
	assert.Equal(t, model.UnknownTag, meta.Resolution)
	assert.Equal(t, model.UnknownCap, meta.Container)
}

func TestResolutionFromHeight(t *testing.T) {
	assert.Equal(t, "2160p", resolutionFromHeight(2160))
	assert.Equal(t, "1080p", resolutionFromHeight(1080))
	assert.Equal(t, "720p", resolutionFromHeight(720))
	assert.Equal(t, "480p", resolutionFromHeight(480))
	assert.Equal(t, "360p", resolutionFromHeight(360))
}

func TestChannelLayout(t *testing.T) {
	assert.Equal(t, "1.0", channelLayout(1))
	assert.Equal(t, "2.0", channelLayout(2))
	assert.Equal(t, "5.1", channelLayout(6))
	assert.Equal(t, "7.1", channelLayout(8))
	assert.Equal(t, "3.0", channelLayout(3))
}

func TestFromFilename(t *testing.T) {
	meta := FromFilename("[阿凡达](2009)-2160p-BluRay-hevc-10bit-TrueHD-7.1.mkv")
	assert.Equal(t, "2160p", meta.Resolution)
	assert.Equal(t, "BluRay", meta.Container)
	assert.Equal(t, "hevc", meta.VideoCodec)
	assert.Equal(t, "10", meta.BitDepth)
	assert.Equal(t, "TRUEHD", meta.AudioCodec)
	assert.Equal(t, "7.1", meta.ChannelLayout)
}
