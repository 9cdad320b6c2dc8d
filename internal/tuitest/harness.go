package tuitest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/creack/pty"
)

const (
	defaultWidth   = 100
	defaultHeight  = 32
	defaultTimeout = 10 * time.Second
)

var (
	// KeyEnter submits the source.
	KeyEnter = []byte{'\r'}
	// KeyTab cycles the output mode.
	KeyTab = []byte{'\t'}
	// KeyEsc quits from the input screen.
	KeyEsc = []byte{27}
	// KeyCtrlC quits from any screen.
	KeyCtrlC = []byte{3}
)

// Step is one scripted interaction: wait Delay, then write Input.
type Step struct {
	Delay time.Duration
	Input []byte
}

// Type writes text as if typed.
func Type(text string) Step { return Step{Input: []byte(text)} }

// Press writes a key sequence such as KeyEnter.
func Press(key []byte) Step { return Step{Input: key} }

// Pause waits before the next step.
func Pause(d time.Duration) Step { return Step{Delay: d} }

// Session describes one interactive paperchunk run.
type Session struct {
	// Binary is a built paperchunk, see Build.
	Binary string
	// Home is the working directory and $HOME of the program. Output and cache
	// directories default to subdirectories of it.
	Home      string
	OutputDir string
	CacheDir  string
	// Args are appended after the interactive flags.
	Args    []string
	Width   int
	Height  int
	Script  []Step
	Timeout time.Duration
}

// Build compiles the paperchunk command in pkgDir into destDir.
func Build(ctx context.Context, pkgDir, destDir string) (string, error) {
	name := "paperchunk"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	bin := filepath.Join(destDir, name)
	cmd := exec.CommandContext(ctx, "go", "build", "-o", bin, ".")
	cmd.Dir = pkgDir
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("tuitest: build paperchunk: %w\n%s", err, out)
	}
	return bin, nil
}

func (s Session) outputDir() string {
	if s.OutputDir != "" {
		return s.OutputDir
	}
	return filepath.Join(s.Home, "out")
}

func (s Session) cacheDir() string {
	if s.CacheDir != "" {
		return s.CacheDir
	}
	return filepath.Join(s.Home, "cache")
}

func (s Session) args() []string {
	args := []string{"--interactive", "--no-alt-screen", "--output", s.outputDir()}
	return append(args, s.Args...)
}

// env isolates the program from the caller's configuration: no config file,
// no PAPERCHUNK_* overrides and a private download cache.
func (s Session) env() []string {
	env := make([]string, 0, len(os.Environ())+4)
	hasTerm := false
	for _, kv := range os.Environ() {
		switch {
		case strings.HasPrefix(kv, "PAPERCHUNK_"), strings.HasPrefix(kv, "HOME="):
			continue
		case strings.HasPrefix(kv, "TERM="):
			hasTerm = true
		}
		env = append(env, kv)
	}
	if !hasTerm {
		env = append(env, "TERM=xterm-256color")
	}
	return append(env,
		"HOME="+s.Home,
		"PAPERCHUNK_CONFIG=",
		"PAPERCHUNK_CACHE_DIR="+s.cacheDir(),
	)
}

// Recording is everything the program wrote to the terminal.
type Recording struct {
	Raw      []byte
	Frames   []Frame
	Duration time.Duration
	// OutputDir is where the session asked paperchunk to write.
	OutputDir string
}

// Run starts the session in a pseudo terminal, plays the script and waits
// for the program to exit. Any exit status other than zero is an error.
func Run(ctx context.Context, s Session) (*Recording, error) {
	if s.Binary == "" || s.Home == "" {
		return nil, errors.New("tuitest: binary and home are required")
	}
	width, height, timeout := s.Width, s.Height, s.Timeout
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.Binary, s.args()...)
	cmd.Dir = s.Home
	cmd.Env = s.env()

	term, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(height), Cols: uint16(width)})
	if err != nil {
		return nil, fmt.Errorf("tuitest: start paperchunk: %w", err)
	}
	defer func() { _ = term.Close() }()

	var screen bytes.Buffer
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		responder := newTerminalResponder(term)
		buf := make([]byte, 4096)
		for {
			n, err := term.Read(buf)
			if n > 0 {
				responder.Process(buf[:n])
				screen.Write(buf[:n])
			}
			if err != nil {
				return
			}
		}
	}()

	start := time.Now()
	if err := play(ctx, term, s.Script); err != nil {
		return nil, err
	}

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()
	select {
	case err := <-exited:
		if err != nil {
			return nil, fmt.Errorf("tuitest: paperchunk exited: %w", err)
		}
	case <-ctx.Done():
		return nil, fmt.Errorf("tuitest: paperchunk still running: %w", ctx.Err())
	}

	_ = term.Close()
	<-drained

	raw := screen.Bytes()
	return &Recording{
		Raw:       raw,
		Frames:    parseFrames(raw),
		Duration:  time.Since(start),
		OutputDir: s.outputDir(),
	}, nil
}

func play(ctx context.Context, term *os.File, script []Step) error {
	for _, step := range script {
		if step.Delay > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("tuitest: script interrupted: %w", ctx.Err())
			case <-time.After(step.Delay):
			}
		}
		if len(step.Input) == 0 {
			continue
		}
		if _, err := term.Write(step.Input); err != nil {
			return fmt.Errorf("tuitest: write input: %w", err)
		}
	}
	return nil
}
