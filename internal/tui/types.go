package tui

import (
	"github.com/csheth/paperchunk/internal/config"
	"github.com/csheth/paperchunk/internal/pipeline"
)

type stage int

const (
	stageInput stage = iota
	stageProcessing
	stageResult
)

const heroTagline = "Turn research papers into prompt-sized chunks."

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
	sourcePlaceholder         = "https://arxiv.org/abs/1706.03762, an arXiv id or a local PDF path"
)

var modeCycle = []config.Mode{config.ModeChunked, config.ModeCombined, config.ModeAuto}

func nextMode(current config.Mode) config.Mode {
	for i, m := range modeCycle {
		if m == current {
			return modeCycle[(i+1)%len(modeCycle)]
		}
	}
	return modeCycle[0]
}

type processResultMsg struct {
	source  string
	outcome pipeline.Outcome
	err     error
}
