package utils

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

// Progress represents a progress bar using mpb. It does nothing unless
// enabled and stderr is a terminal.
type Progress struct {
	container *mpb.Progress
	bar       *mpb.Bar
	enabled   bool

	mu          sync.Mutex
	description string
}

var descLength = 24

// NewProgress creates a new progress bar titled label with the given total count
func NewProgress(label string, total int, enabled bool) *Progress {
	p := &Progress{enabled: enabled && isTerminal()}
	if !p.enabled {
		return p
	}

	// Add space before progress bar
	fmt.Fprintln(os.Stderr)

	p.container = mpb.New(
		mpb.WithOutput(os.Stderr),
		mpb.WithWidth(64),
		mpb.WithRefreshRate(100*time.Millisecond),
	)

	p.bar = p.container.New(int64(total),
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Name(label, decor.WC{C: decor.DindentRight | decor.DextraSpace}),
			decor.Any(func(decor.Statistics) string {
				desc := p.current()
				if len(desc) > descLength {
					return ".." + desc[len(desc)-descLength+2:]
				}
				return desc
			}, decor.WC{W: descLength, C: decor.DindentRight}),
			decor.CountersNoUnit(" %d/%d", decor.WC{C: decor.DindentRight}),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.Name(" "),
			decor.Elapsed(decor.ET_STYLE_GO),
		),
	)

	return p
}

func (p *Progress) current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.description
}

// Update updates the progress bar with current count and description
func (p *Progress) Update(current int, description string) {
	if !p.enabled || p.bar == nil {
		return
	}

	p.mu.Lock()
	p.description = description
	p.mu.Unlock()

	p.bar.SetCurrent(int64(current))
}

// Callback adapts Update to the func(current, total, description) shape
// used by the bundler and exporter.
func (p *Progress) Callback() func(current int, total int, description string) {
	return func(current int, _ int, description string) {
		p.Update(current, description)
	}
}

// Finish completes the progress bar and shuts down the container. A bar
// that did not reach its total is aborted so Wait returns.
func (p *Progress) Finish() {
	if !p.enabled || p.container == nil {
		return
	}

	if !p.bar.Completed() {
		p.bar.Abort(false)
	}
	p.container.Wait()

	// Add space after progress bar
	fmt.Fprintln(os.Stderr)
}

// isTerminal checks if stderr is a terminal (TTY)
func isTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
