// Package engine provides the frame loop and the simulation controller that
// owns all torus state.
package engine

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultFrameInterval matches a 60 Hz display refresh.
const DefaultFrameInterval = 16 * time.Millisecond

// Engine drives frames at a fixed wall-clock interval.
type Engine struct {
	Frame    uint64        // Frames delivered since Run started counting
	Interval time.Duration // Wall-clock time per frame

	running atomic.Bool

	// OnFrame is called once per frame from the Run goroutine.
	OnFrame func(frame uint64)
}

// NewEngine creates an engine with the default frame interval.
func NewEngine() *Engine {
	return &Engine{
		Interval: DefaultFrameInterval,
	}
}

// Run starts the frame loop. Blocks until Stop() is called.
func (e *Engine) Run() {
	e.running.Store(true)
	slog.Info("frame loop started", "frame", e.Frame, "interval", e.Interval)

	for e.running.Load() {
		start := time.Now()

		e.step()

		// Sleep for the remainder of the frame.
		if elapsed := time.Since(start); elapsed < e.Interval {
			time.Sleep(e.Interval - elapsed)
		}
	}

	slog.Info("frame loop stopped", "frame", e.Frame)
}

// Stop halts the frame loop after the current frame.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// Running reports whether the loop is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

func (e *Engine) step() {
	e.Frame++
	if e.OnFrame != nil {
		e.OnFrame(e.Frame)
	}
}
