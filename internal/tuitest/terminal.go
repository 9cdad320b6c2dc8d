package tuitest

import (
	"fmt"
	"io"
	"regexp"
)

// Colors reported back when the program asks for the terminal palette.
const (
	replyForeground = "rgb:cccc/cccc/cccc"
	replyBackground = "rgb:0000/0000/0000"
)

// maxQueryLen is the longest query below; that many trailing bytes are kept
// between reads so a query split across reads still matches.
const maxQueryLen = 8

// terminalQuery matches the cursor position report request and the OSC 10/11
// color queries with either terminator.
var terminalQuery = regexp.MustCompile(`\x1b\[6n|\x1b\](1[01]);\?(\x07|\x1b\\)`)

// terminalResponder plays the terminal side of the queries lipgloss and
// bubbletea send at startup. Without answers they block until a timeout.
type terminalResponder struct {
	w       io.Writer
	pending []byte
}

func newTerminalResponder(w io.Writer) *terminalResponder {
	return &terminalResponder{w: w}
}

func (tr *terminalResponder) Process(data []byte) {
	tr.pending = append(tr.pending, data...)
	for {
		loc := terminalQuery.FindSubmatchIndex(tr.pending)
		if loc == nil {
			break
		}
		_, _ = io.WriteString(tr.w, answer(tr.pending, loc))
		tr.pending = tr.pending[loc[1]:]
	}
	if len(tr.pending) > maxQueryLen {
		tr.pending = append([]byte(nil), tr.pending[len(tr.pending)-maxQueryLen:]...)
	}
}

func answer(buf []byte, loc []int) string {
	if loc[2] < 0 {
		return "\x1b[1;1R"
	}
	code := string(buf[loc[2]:loc[3]])
	terminator := string(buf[loc[4]:loc[5]])
	color := replyForeground
	if code == "11" {
		color = replyBackground
	}
	return fmt.Sprintf("\x1b]%s;%s%s", code, color, terminator)
}
