// Package overlays builds the text layers put on every clip: a title near
// the top of the frame and a subtitle near the bottom.
package overlays

import (
	"github.com/kikiluvv/ytclipper/internal/config"
	"github.com/kikiluvv/ytclipper/internal/ffmpeg"
)

// Defaults used when the text config leaves a field empty.
const (
	DefaultFontSize   = 24
	DefaultFontColor  = "white"
	DefaultBackground = "black"
)

// Style converts the text section of the config into a drawtext style.
func Style(cfg config.TextConfig) ffmpeg.TextStyle {
	style := ffmpeg.TextStyle{
		FontSize:  cfg.FontSize,
		FontColor: cfg.FontColor,
		FontFile:  cfg.FontFile,
	}
	if style.FontSize <= 0 {
		style.FontSize = DefaultFontSize
	}
	if style.FontColor == "" {
		style.FontColor = DefaultFontColor
	}
	return style
}

// Background returns the card background color for cfg.
func Background(cfg config.TextConfig) string {
	if cfg.Background == "" {
		return DefaultBackground
	}
	return cfg.Background
}

// Title is the layer placed near the top of the frame.
func Title(text string, style ffmpeg.TextStyle) ffmpeg.TextOverlay {
	return ffmpeg.TextOverlay{Text: text, Position: ffmpeg.PositionTop, Style: style}
}

// Subtitle is the layer placed near the bottom of the frame.
func Subtitle(text string, style ffmpeg.TextStyle) ffmpeg.TextOverlay {
	return ffmpeg.TextOverlay{Text: text, Position: ffmpeg.PositionBottom, Style: style}
}

// Lines returns the title and subtitle layers in that order. Empty text
// still produces a layer so every clip has the same structure.
func Lines(title, subtitle string, style ffmpeg.TextStyle) []ffmpeg.TextOverlay {
	return []ffmpeg.TextOverlay{
		Title(title, style),
		Subtitle(subtitle, style),
	}
}
