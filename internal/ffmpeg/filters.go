package ffmpeg

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// FilterBuilder helps construct ffmpeg -vf filter chains
type FilterBuilder struct {
	filters []string
}

// NewFilterBuilder creates a new filter builder
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{
		filters: make([]string, 0),
	}
}

// DrawText draws the contents of textFile for the whole stream, centered
// horizontally at pos.
func (fb *FilterBuilder) DrawText(textFile string, pos TextPosition, style TextStyle) *FilterBuilder {
	if textFile == "" {
		return fb
	}
	opts := []string{
		"textfile=" + escapeFilterPath(textFile),
		"expansion=none",
	}
	if style.FontFile != "" {
		opts = append(opts, "fontfile="+escapeFilterPath(style.FontFile))
	}
	opts = append(opts,
		fmt.Sprintf("fontsize=%d", fontSize(style)),
		"fontcolor="+fontColor(style),
		"x="+textX,
		"y="+textY(pos),
	)
	fb.filters = append(fb.filters, "drawtext="+strings.Join(opts, ":"))
	return fb
}

// Format adds a pixel format conversion
func (fb *FilterBuilder) Format(pixFmt string) *FilterBuilder {
	if pixFmt == "" {
		return fb
	}
	fb.filters = append(fb.filters, "format="+pixFmt)
	return fb
}

// Build returns the complete filter string joined with commas
func (fb *FilterBuilder) Build() string {
	if len(fb.filters) == 0 {
		return ""
	}
	return strings.Join(fb.filters, ",")
}

const (
	textX      = "(w-text_w)/2"
	textMargin = 10
)

func textY(pos TextPosition) string {
	if pos == PositionBottom {
		return fmt.Sprintf("h-text_h-%d", textMargin)
	}
	return fmt.Sprintf("%d", textMargin)
}

func fontSize(style TextStyle) int {
	if style.FontSize <= 0 {
		return 24
	}
	return style.FontSize
}

func fontColor(style TextStyle) string {
	if style.FontColor == "" {
		return "white"
	}
	return style.FontColor
}

// escapeFilterPath escapes a file path for use as a filter option value
func escapeFilterPath(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	// Windows: Convert backslashes to forward slashes
	if runtime.GOOS == "windows" {
		absPath = strings.ReplaceAll(absPath, "\\", "/")
	}

	escaped := strings.ReplaceAll(absPath, "\\", "\\\\")
	escaped = strings.ReplaceAll(escaped, ":", "\\:")
	escaped = strings.ReplaceAll(escaped, "'", "\\'")
	escaped = strings.ReplaceAll(escaped, ",", "\\,")

	return escaped
}
