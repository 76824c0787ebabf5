// Package progress provides a unified interface for transfer progress
// reporting: a progress bar in CLI mode, silence in scripted mode.
package progress

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter is the interface for reporting per-send progress.
type Reporter interface {
	Start(total int, description string)
	Update(completed int)
	SetDescription(desc string)
	Finish()
	Error(err error)
}

// CLIProgress renders a terminal progress bar counting transferred items.
type CLIProgress struct {
	bar *progressbar.ProgressBar
}

// NewCLIProgress creates a CLI progress reporter.
func NewCLIProgress() *CLIProgress {
	return &CLIProgress{}
}

// Start initializes the progress bar with the item total and description.
func (p *CLIProgress) Start(total int, description string) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(100),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Update moves the bar to the completed count.
func (p *CLIProgress) Update(completed int) {
	if p.bar != nil {
		_ = p.bar.Set(completed)
	}
}

// SetDescription updates the bar description.
func (p *CLIProgress) SetDescription(desc string) {
	if p.bar != nil {
		p.bar.Describe(desc)
	}
}

// Finish completes the bar.
func (p *CLIProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// Error displays an error message below the bar.
func (p *CLIProgress) Error(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
	}
}

// NullProgress discards all progress reports.
type NullProgress struct{}

func (NullProgress) Start(int, string)     {}
func (NullProgress) Update(int)            {}
func (NullProgress) SetDescription(string) {}
func (NullProgress) Finish()               {}
func (NullProgress) Error(error)           {}
