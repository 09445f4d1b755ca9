// Package progressbar implements functionality of printing a progress
// bar to the terminal window
package progressbar

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ProgressBar implements a concurrent progress bar. Rendering happens
// in a separate goroutine so that the progress bar runs concurrently
// with the work it reports on.
type ProgressBar struct {
	out io.Writer

	// width determines the number of characters wide that the progress
	// bar should be
	width int

	// maxProgress determines the number of times Increment() should
	// be called before the progress bar reaches 100%.
	maxProgress int

	mu              sync.Mutex
	currentProgress int
	startTime       time.Time

	incrementEvent chan struct{}
	closeEvent     chan struct{}
	done           sync.WaitGroup
	once           sync.Once

	updateEvery time.Duration
}

// NewProgressBar returns a new progress bar that is width characters
// wide and reaches 100% capacity after max Increment() calls. The bar
// is redrawn on every increment and at least every updateEvery.
func NewProgressBar(out io.Writer, width, max int,
	updateEvery time.Duration) *ProgressBar {
	if max < 1 {
		max = 1
	}
	return &ProgressBar{
		out:            out,
		width:          width,
		maxProgress:    max,
		incrementEvent: make(chan struct{}, 1),
		closeEvent:     make(chan struct{}),
		updateEvery:    updateEvery,
	}
}

// Increment increments the internal progress counter. Each time an
// iteration is performed, Increment should be called.
func (p *ProgressBar) Increment() {
	p.mu.Lock()
	if p.currentProgress < p.maxProgress {
		p.currentProgress++
	}
	p.mu.Unlock()

	select {
	case p.incrementEvent <- struct{}{}:
	default:
	}
}

// Progress returns the number of increments so far
func (p *ProgressBar) Progress() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentProgress
}

// Display starts drawing the progress bar. It should only be called
// once.
func (p *ProgressBar) Display() {
	p.startTime = time.Now()
	p.done.Add(1)

	go func() {
		defer p.done.Done()
		tick := time.NewTicker(p.updateEvery)
		defer tick.Stop()

		for {
			select {
			case <-p.incrementEvent:
			case <-tick.C:
			case <-p.closeEvent:
				p.draw()
				fmt.Fprintln(p.out) // Jump to next line after printed bar
				return
			}
			p.draw()
		}
	}()
}

// Close stops drawing the progress bar after a final redraw and
// releases its resources. Close may be called more than once.
func (p *ProgressBar) Close() {
	p.once.Do(func() {
		close(p.closeEvent)
		p.done.Wait()
	})
}

// draw prints the current state of the progress bar
func (p *ProgressBar) draw() {
	fmt.Fprintf(p.out, "\n\033[1A\033[K%v", p.String())
}

// String returns the textual progress bar
func (p *ProgressBar) String() string {
	progress := p.Progress()
	filled := progress * p.width / p.maxProgress

	var bar strings.Builder
	bar.WriteString("|")
	bar.WriteString(strings.Repeat("█", filled))
	bar.WriteString(strings.Repeat(" ", p.width-filled))
	fmt.Fprintf(&bar, "| [%.2f%% | elapsed: %v]",
		float64(progress)/float64(p.maxProgress)*100,
		time.Since(p.startTime).Truncate(time.Second))

	return bar.String()
}
