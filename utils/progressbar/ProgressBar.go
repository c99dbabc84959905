// Package progressbar implements functionality of printing a progress
// bar to the terminal window
package progressbar

import (
	"fmt"
	"strings"
	"time"
)

// ProgressBar implements a concurrent progress bar for long rollouts.
// Updates happen in a separate goroutine so stepping the simulation is
// never blocked on terminal output.
type ProgressBar struct {
	width       float64
	maxProgress float64

	currentProgress float64

	incrementEvent chan float64
	closeEvent     chan struct{}
	closed         bool

	updateEvery       time.Duration
	updateAtIncrement bool
}

// New returns a progress bar that is width characters wide and reaches
// 100% after max Increment calls
func New(width, max int, updateEvery time.Duration,
	updateAtIncrement bool) *ProgressBar {
	return &ProgressBar{
		width:             float64(width),
		maxProgress:       float64(max),
		incrementEvent:    make(chan float64),
		closeEvent:        make(chan struct{}),
		updateEvery:       updateEvery,
		updateAtIncrement: updateAtIncrement,
	}
}

// Increment advances the internal progress counter. Call once per
// completed control step.
func (pbar *ProgressBar) Increment() {
	go func() {
		if pbar.currentProgress < pbar.maxProgress && !pbar.closed {
			pbar.incrementEvent <- pbar.currentProgress
			pbar.currentProgress++
		}
	}()
}

// Close stops displaying the progress bar and releases its resources
func (pbar *ProgressBar) Close() {
	if pbar.closed {
		panic("close: close on closed progress bar")
	}
	close(pbar.closeEvent)
	pbar.closed = true
	fmt.Println()
}

// Display starts drawing the progress bar. It should only be called
// once.
func (pbar *ProgressBar) Display() {
	go func() {
		currentProgress := pbar.currentProgress
		maxProgress := pbar.maxProgress
		width := pbar.width

		tick := time.NewTicker(pbar.updateEvery)
		var elapsed time.Duration

		var bar strings.Builder
		for {
			select {
			case currentProgress = <-pbar.incrementEvent:
				if !pbar.updateAtIncrement {
					continue
				}

			case <-tick.C:
				elapsed += pbar.updateEvery

			case <-pbar.closeEvent:
				close(pbar.incrementEvent)
				tick.Stop()
				return

			default:
				continue
			}

			bar.Reset()
			bar.WriteString("|")
			progress := currentProgress / maxProgress * width
			for i := 0.0; i < progress; i++ {
				bar.WriteString("█")
			}
			for i := progress; i < width; i++ {
				bar.WriteString(" ")
			}
			fmt.Fprintf(&bar, "| [%.2f%% | elapsed: %v]",
				currentProgress/maxProgress*100, elapsed)
			fmt.Printf("\r%v", bar.String())
		}
	}()
}
