package ffmpeg

import "time"

// VideoInfo contains metadata about a video file
type VideoInfo struct {
	FilePath     string
	Duration     time.Duration
	Width        int
	Height       int
	FPS          float64
	FrameRate    string // raw r_frame_rate, e.g. "30000/1001"
	Bitrate      int64
	VideoCodec   string
	HasAudio     bool
	AudioCodec   string
	SampleRate   int
	Channels     int
	AudioBitrate int64
}

// Progress represents ffmpeg progress data
type Progress struct {
	Frame      int
	FPS        float64
	Bitrate    string
	Time       string
	Speed      string
	Percentage float64
}

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	ProgressHandler func(*Progress)
	LogHandler      func(line string)
}

// ProgressFunc is a callback for progress updates during ffmpeg operations.
// Called periodically with progress information as the operation executes.
type ProgressFunc func(*Progress)

// Default encoding settings
const (
	DefaultCRF        = 23
	DefaultPreset     = "medium"
	DefaultVideoCodec = "libx264"
	DefaultAudioCodec = "aac"
	DefaultPixFmt     = "yuv420p"

	DefaultWidth      = 1280
	DefaultHeight     = 720
	DefaultFrameRate  = "30"
	DefaultSampleRate = 44100
)

// TextPosition places a line of text vertically in the frame.
type TextPosition string

const (
	PositionTop    TextPosition = "top"
	PositionBottom TextPosition = "bottom"
)

// TextStyle configures drawtext rendering.
type TextStyle struct {
	FontSize  int
	FontColor string
	FontFile  string
}

// TextOverlay is one line of text drawn for the whole input duration.
type TextOverlay struct {
	Text     string
	Position TextPosition
	Style    TextStyle
}
