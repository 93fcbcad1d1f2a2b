package listen

import (
	"context"
	"sync"
	"time"

	"github.com/asticode/go-astilecture"
	"github.com/asticode/go-astilog"
	"github.com/pkg/errors"
)

// SegmentFunc receives an accepted audio window, encoded and ready to be
// shipped.
type SegmentFunc func(s astilecture.AudioSegment)

type GateOptions struct {
	MinSegmentBytes  int           `toml:"min_segment_bytes"`
	SampleInterval   time.Duration `toml:"sample_interval"`
	SilenceThreshold float64       `toml:"silence_threshold"`
	SpeechRatio      float64       `toml:"speech_ratio"`
	WindowDuration   time.Duration `toml:"window_duration"`
}

// Accept is the gate decision: a window goes out only when enough of its
// volume samples rise above the silence threshold and the encoded segment is
// big enough to be real audio. Pure function of its inputs.
func (o GateOptions) Accept(speechRatio float64, sizeBytes int) bool {
	return speechRatio >= o.SpeechRatio && sizeBytes >= o.MinSegmentBytes
}

// Gate owns the capture device and hands out only windows that likely contain
// speech. Starting is restart-safe: a stale start detects it has been
// superseded through the generation counter and releases the device instead
// of activating a second capture loop.
type Gate struct {
	cancel     context.CancelFunc
	cs         []*calibration
	ctx        context.Context
	generation int
	m          *sync.Mutex // Locks generation, cancel and cs
	o          GateOptions
	onSegment  SegmentFunc
	s          Stream
	wg         *sync.WaitGroup
}

func NewGate(s Stream, onSegment SegmentFunc, o GateOptions) (g *Gate) {
	// Create gate
	g = &Gate{
		m:         &sync.Mutex{},
		o:         o,
		onSegment: onSegment,
		s:         s,
		wg:        &sync.WaitGroup{},
	}

	// Default options
	if g.o.MinSegmentBytes <= 0 {
		g.o.MinSegmentBytes = 500
	}
	if g.o.SampleInterval <= 0 {
		g.o.SampleInterval = 50 * time.Millisecond
	}
	if g.o.SilenceThreshold <= 0 {
		g.o.SilenceThreshold = 0.01
	}
	if g.o.SpeechRatio <= 0 {
		g.o.SpeechRatio = 0.05
	}
	if g.o.WindowDuration <= 0 {
		g.o.WindowDuration = 5 * time.Second
	}
	return
}

// Start acquires the device and spawns the capture loop. It's safe to call
// again while a previous start is still pending: the superseded start
// releases the device once it completes and no-ops.
func (g *Gate) Start(ctx context.Context) (err error) {
	// Capture generation
	g.m.Lock()
	g.generation++
	generation := g.generation
	g.m.Unlock()

	// Acquire device
	if err = g.s.Start(); err != nil {
		err = errors.Wrap(err, "listen: starting stream failed")
		return
	}

	// Check whether this start is still current
	g.m.Lock()
	if generation != g.generation {
		g.m.Unlock()

		// Orphaned: release the device
		astilog.Debug("listen: orphaned start detected, releasing device")
		if err := g.s.Stop(); err != nil {
			astilog.Error(errors.Wrap(err, "listen: stopping stream failed"))
		}
		return
	}

	// Create context
	g.ctx, g.cancel = context.WithCancel(ctx)
	g.wg.Add(1)
	g.m.Unlock()

	// Capture
	go g.capture(g.ctx)
	return
}

// Stop cancels the capture loop and releases the device. Safe to call at any
// time, including before a start completed.
func (g *Gate) Stop() {
	// Orphan any pending start
	g.m.Lock()
	g.generation++
	cancel := g.cancel
	g.cancel = nil
	g.m.Unlock()

	// Cancel capture
	if cancel != nil {
		cancel()
	}

	// Release the device unconditionally; this also unblocks a pending read
	if err := g.s.Stop(); err != nil {
		astilog.Error(errors.Wrap(err, "listen: stopping stream failed"))
	}
	g.wg.Wait()
}

func (g *Gate) capture(ctx context.Context) {
	defer g.wg.Done()

	// Create first window
	w := newWindow(g.o, g.s)
	for {
		// Check context
		if ctx.Err() != nil {
			return
		}

		// Read
		b, err := g.s.Read()
		if err != nil {
			if ctx.Err() == nil {
				astilog.Error(errors.Wrap(err, "listen: reading failed"))
			}
			return
		}

		// Feed calibrations
		g.feedCalibrations(b)

		// Add to window
		w.add(b)

		// Window complete
		if w.full() {
			g.closeWindow(w)
			w = newWindow(g.o, g.s)
		}
	}
}

// closeWindow makes the gate decision and emits the segment when accepted.
// Rejected windows are dropped silently: no network cost, no side effect.
func (g *Gate) closeWindow(w *window) {
	// Compute speech ratio
	ratio := w.speechRatio(g.o.SilenceThreshold)

	// Encode
	data, err := w.encode()
	if err != nil {
		astilog.Error(errors.Wrap(err, "listen: encoding window failed"))
		return
	}

	// Gate decision
	if !g.o.Accept(ratio, len(data)) {
		astilog.Debugf("listen: dropping window (speech ratio %.3f, %d bytes)", ratio, len(data))
		return
	}

	// Emit
	if g.onSegment != nil {
		g.onSegment(astilecture.AudioSegment{
			Data:     data,
			MimeType: "audio/wav",
		})
	}
}
