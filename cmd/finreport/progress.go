package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
)

// progress is a stderr progress bar for concurrent runs, where per-document lines would interleave.
type progress struct {
	bar *progressbar.ProgressBar
}

func newProgress(total int64, description string) *progress {
	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &progress{bar: bar}
}

func (p *progress) Increment() {
	_ = p.bar.Add(1)
}

func (p *progress) Finish() {
	_ = p.bar.Finish()
}
