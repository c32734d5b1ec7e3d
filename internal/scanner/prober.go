package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// Prober extracts technical metadata from a media file. Implementations must
// be safe for concurrent use; the orchestrator runs probes from a worker pool.
type Prober interface {
	Probe(ctx context.Context, filePath string) (*ProbeResult, error)
}

// FFprobe shells out to ffprobe with a bounded per-file timeout. Corrupt
// media can hang the process, so the timeout is what bounds a scan's
// worst-case stall.
type FFprobe struct {
	Path    string
	Timeout time.Duration
}

func NewFFprobe(path string, timeout time.Duration) *FFprobe {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FFprobe{Path: path, Timeout: timeout}
}

type ProbeResult struct {
	Format  FormatInfo   `json:"format"`
	Streams []StreamInfo `json:"streams"`
}

type FormatInfo struct {
	Filename string `json:"filename"`
	Duration string `json:"duration"`
	Size     string `json:"size"`
	Bitrate  string `json:"bit_rate"`
}

type StreamInfo struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

func (f *FFprobe) Probe(ctx context.Context, filePath string) (*ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.Path,
		"-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", filePath)
	output, err := cmd.Output()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("ffprobe timed out after %s", f.Timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseProbeOutput(output)
}

func parseProbeOutput(output []byte) (*ProbeResult, error) {
	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	return &result, nil
}

func (r *ProbeResult) GetDurationSeconds() int {
	duration, _ := strconv.ParseFloat(r.Format.Duration, 64)
	return int(duration)
}

// GetResolution classifies the video stream by both width and height.
// Some content is slightly letterboxed (e.g. 1920x1036 is still 1080p).
func (r *ProbeResult) GetResolution() string {
	for _, s := range r.Streams {
		if s.CodecType == "video" {
			if s.Height >= 2160 || s.Width >= 3840 {
				return "4K"
			}
			if s.Height >= 900 || s.Width >= 1800 {
				return "1080p"
			}
			if s.Height >= 600 || s.Width >= 1200 {
				return "720p"
			}
			if s.Height >= 400 {
				return "480p"
			}
			return "SD"
		}
	}
	return ""
}

func (r *ProbeResult) GetVideoCodec() string {
	for _, s := range r.Streams {
		if s.CodecType == "video" {
			return s.CodecName
		}
	}
	return ""
}

func (r *ProbeResult) GetBitrate() int64 {
	br, _ := strconv.ParseInt(r.Format.Bitrate, 10, 64)
	return br
}
