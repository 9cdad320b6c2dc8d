// Package tuitest drives the paperchunk binary inside a pseudo terminal and
// captures the frames it renders.
package tuitest

import (
	"regexp"
	"strings"
)

// Stage is the screen of the interactive prompt a frame belongs to.
type Stage string

const (
	StageUnknown    Stage = ""
	StageInput      Stage = "input"
	StageProcessing Stage = "processing"
	StageResult     Stage = "result"
)

// stageMarkers are checked in order; a frame that repaints the result view
// can still carry an older status line, so later stages come first.
var stageMarkers = []struct {
	stage  Stage
	marker string
}{
	{StageResult, "Another paper"},
	{StageProcessing, "Downloading, extracting and splitting"},
	{StageInput, "Paper source"},
}

// Frame is one terminal repaint with escape sequences stripped.
type Frame struct {
	Index int
	Stage Stage
	ANSI  string
	Plain string
}

var (
	frameSeparator = regexp.MustCompile(`\x1b\[[0-9;]*J`)
	escapeSequence = regexp.MustCompile(`\x1b\][^\x07\x1b]*(?:\x07|\x1b\\)|\x1b\[[0-9;?]*[A-Za-z]|[\x0e\x0f]`)
)

func parseFrames(raw []byte) []Frame {
	stream := strings.ReplaceAll(string(raw), "\r", "")
	var frames []Frame
	add := func(ansi string) {
		plain := tidyLines(escapeSequence.ReplaceAllString(ansi, ""))
		if plain == "" {
			return
		}
		frames = append(frames, Frame{Index: len(frames), Stage: classify(plain), ANSI: ansi, Plain: plain})
	}
	for _, segment := range frameSeparator.Split(stream, -1) {
		add(strings.TrimPrefix(strings.Trim(segment, "\x00"), "\x1b[H"))
	}
	if len(frames) == 0 && stream != "" {
		add(stream)
	}
	return frames
}

func classify(plain string) Stage {
	for _, m := range stageMarkers {
		if strings.Contains(plain, m.marker) {
			return m.stage
		}
	}
	return StageUnknown
}

// tidyLines drops trailing spaces and trailing blank lines. It returns ""
// when nothing visible is left.
func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// FrameContaining returns the first frame whose plain text contains text.
func (r *Recording) FrameContaining(text string) (Frame, bool) {
	if r == nil {
		return Frame{}, false
	}
	for _, f := range r.Frames {
		if strings.Contains(f.Plain, text) {
			return f, true
		}
	}
	return Frame{}, false
}

// Last returns the most recent frame rendered at stage.
func (r *Recording) Last(stage Stage) (Frame, bool) {
	if r == nil {
		return Frame{}, false
	}
	for i := len(r.Frames) - 1; i >= 0; i-- {
		if r.Frames[i].Stage == stage {
			return r.Frames[i], true
		}
	}
	return Frame{}, false
}

// Stages lists the stages the program passed through in order, collapsing
// repeats and skipping frames that only repaint unlabelled lines.
func (r *Recording) Stages() []Stage {
	if r == nil {
		return nil
	}
	var stages []Stage
	for _, f := range r.Frames {
		if f.Stage == StageUnknown {
			continue
		}
		if n := len(stages); n > 0 && stages[n-1] == f.Stage {
			continue
		}
		stages = append(stages, f.Stage)
	}
	return stages
}
