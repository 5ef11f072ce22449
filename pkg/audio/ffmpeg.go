package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/mwidjaja/callscribe/pkg/errorsx"
)

// FFmpegConverter shells out to ffmpeg to wrap raw PCM into a WAV container.
// Useful when the output should go through ffmpeg's resampling/filtering
// rather than a plain header prepend.
type FFmpegConverter struct {
	sampleRate int
	channels   int
	tempDir    string
	binary     string
}

func NewFFmpegConverter(sampleRate, channels int, tempDir string) *FFmpegConverter {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if channels <= 0 {
		channels = DefaultChannels
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &FFmpegConverter{
		sampleRate: sampleRate,
		channels:   channels,
		tempDir:    tempDir,
		binary:     "ffmpeg",
	}
}

func (c *FFmpegConverter) Name() string { return "ffmpeg" }

// Available reports whether the ffmpeg binary can be found on PATH.
func (c *FFmpegConverter) Available() bool {
	_, err := exec.LookPath(c.binary)
	return err == nil
}

func (c *FFmpegConverter) Convert(ctx context.Context, pcm []byte) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, errorsx.Wrap(fmt.Errorf("cannot convert empty audio data"), errorsx.ReasonConvertInput)
	}

	base := filepath.Join(c.tempDir, uuid.NewString())
	pcmPath := base + ".pcm"
	wavPath := base + ".wav"
	if err := os.WriteFile(pcmPath, pcm, 0o600); err != nil {
		return nil, errorsx.Wrap(fmt.Errorf("write pcm artifact: %w", err), errorsx.ReasonArtifactIO)
	}
	defer os.Remove(pcmPath)
	defer os.Remove(wavPath)

	cmd := exec.CommandContext(ctx, c.binary,
		"-y",
		"-f", "s16le",
		"-ar", strconv.Itoa(c.sampleRate),
		"-ac", strconv.Itoa(c.channels),
		"-i", pcmPath,
		wavPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, errorsx.Wrap(fmt.Errorf("ffmpeg conversion failed: %w (%s)", err, string(out)), errorsx.ReasonConvert)
	}

	wav, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, errorsx.Wrap(fmt.Errorf("read wav artifact: %w", err), errorsx.ReasonArtifactIO)
	}
	return wav, nil
}
