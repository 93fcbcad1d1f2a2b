package listen

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/asticode/go-astichartjs"
	astipcm "github.com/asticode/go-astitools/pcm"
	astiptr "github.com/asticode/go-astitools/ptr"
	"github.com/pkg/errors"
)

// Vars
var (
	calibrationDuration     = 5 * time.Second
	calibrationStepDuration = 100 * time.Millisecond
)

type Calibration struct {
	Chart                     astichartjs.Chart `json:"chart"`
	CurrentSilenceThreshold   float64           `json:"current_silence_threshold"`
	MaxAudioLevel             float64           `json:"max_audio_level"`
	SuggestedSilenceThreshold float64           `json:"suggested_silence_threshold"`
}

// Calibrate records a few seconds of audio levels and suggests a silence
// threshold. The capture loop must be running.
func (g *Gate) Calibrate() (o Calibration, err error) {
	// Create new calibration
	c := g.newCalibration()
	defer c.close()

	// Wait
	if err = c.wait(); err != nil {
		err = errors.Wrap(err, "listen: waiting for calibration failed")
		return
	}

	// Compute results
	o = c.results(g.o.SilenceThreshold)
	return
}

type calibration struct {
	b      []int32
	c      *sync.Cond
	cancel context.CancelFunc
	ctx    context.Context
	mb     *sync.Mutex // Locks b
	s      Stream
}

func (g *Gate) newCalibration() (c *calibration) {
	// Create calibration
	c = &calibration{
		c:  sync.NewCond(&sync.Mutex{}),
		mb: &sync.Mutex{},
		s:  g.s,
	}

	// Create context
	c.ctx, c.cancel = context.WithTimeout(context.Background(), 2*calibrationDuration)

	// Append
	g.m.Lock()
	g.cs = append(g.cs, c)
	g.m.Unlock()
	return
}

func (g *Gate) feedCalibrations(samples []int32) {
	// Lock
	g.m.Lock()

	// Loop through calibrations
	for idx := 0; idx < len(g.cs); idx++ {
		// Add samples
		c := g.cs[idx]
		var done bool
		if c.ctx.Err() == nil {
			done = c.add(samples)
		} else {
			done = true
		}

		// Remove calibration
		if done {
			g.cs = append(g.cs[:idx], g.cs[idx+1:]...)
			idx--
		}
	}

	// Unlock
	g.m.Unlock()
}

func (c *calibration) close() {
	c.cancel()
}

func (c *calibration) add(s []int32) (done bool) {
	// Get required number of samples
	// We take one more step than requested for the chart to be fully drawn
	n := int(float64(c.s.SampleRate()*c.s.NumChannels()) * (calibrationDuration + calibrationStepDuration).Seconds())

	// Lock
	c.mb.Lock()

	// Add samples
	if len(c.b)+len(s) <= n {
		c.b = append(c.b, s...)
	} else {
		// Append
		c.b = append(c.b, s[:n-len(c.b)]...)

		// Signal
		c.c.L.Lock()
		c.c.Signal()
		c.c.L.Unlock()

		// Update done
		done = true
	}

	// Unlock
	c.mb.Unlock()
	return
}

func (c *calibration) wait() (err error) {
	// Handle context
	go func() {
		// Wait for context to be done
		<-c.ctx.Done()

		// Signal
		c.c.L.Lock()
		err = c.ctx.Err()
		c.c.Signal()
		c.c.L.Unlock()
	}()

	// Wait
	c.c.L.Lock()
	c.c.Wait()
	c.c.L.Unlock()
	return
}

func (c *calibration) results(currentSilenceThreshold float64) (o Calibration) {
	// Create calibration
	o = Calibration{
		Chart: astichartjs.Chart{
			Data: &astichartjs.Data{
				Datasets: []astichartjs.Dataset{{
					BackgroundColor: astichartjs.ChartBackgroundColorGreen,
					BorderColor:     astichartjs.ChartBorderColorGreen,
					Label:           "Audio level",
				}},
			},
			Options: &astichartjs.Options{
				Scales: &astichartjs.Scales{
					XAxes: []astichartjs.Axis{
						{
							Position: astichartjs.ChartAxisPositionsBottom,
							ScaleLabel: &astichartjs.ScaleLabel{
								Display:     astiptr.Bool(true),
								LabelString: "Duration (s)",
							},
							Type: astichartjs.ChartAxisTypesLinear,
						},
					},
					YAxes: []astichartjs.Axis{
						{
							ScaleLabel: &astichartjs.ScaleLabel{
								Display:     astiptr.Bool(true),
								LabelString: "Audio level",
							},
						},
					},
				},
				Title: &astichartjs.Title{Display: astiptr.Bool(true)},
			},
			Type: astichartjs.ChartTypeLine,
		},
		CurrentSilenceThreshold: currentSilenceThreshold,
	}

	// Get number of samples per step
	numberOfSamplesPerStep := int(math.Ceil(float64(c.s.SampleRate()*c.s.NumChannels()) * calibrationStepDuration.Seconds()))

	// Get number of steps
	numberOfSteps := int(math.Ceil(float64(len(c.b)) / float64(numberOfSamplesPerStep)))

	// Process buffer
	var maxX float64
	for idx := 0; idx < numberOfSteps; idx++ {
		// Offsets
		start := idx * numberOfSamplesPerStep
		end := start + numberOfSamplesPerStep

		// Get samples
		var samples []int32
		if len(c.b) >= end {
			samples = c.b[start:end]
		} else {
			samples = c.b[start:]
		}

		// Compute normalized audio level
		audioLevel := audioLevel(samples) / maxAudioLevel(c.s.BitDepth())

		// Get max audio level
		o.MaxAudioLevel = math.Max(o.MaxAudioLevel, audioLevel)

		// Add data to chart
		maxX = float64(numberOfSamplesPerStep) / float64(c.s.SampleRate()*c.s.NumChannels()) * float64(idx)
		o.Chart.Data.Datasets[0].Data = append(o.Chart.Data.Datasets[0].Data, astichartjs.DataPoint{
			X: maxX,
			Y: audioLevel,
		})
	}

	// Add current silence threshold to chart
	o.Chart.Data.Datasets = append(o.Chart.Data.Datasets, astichartjs.Dataset{
		BackgroundColor: astichartjs.ChartBackgroundColorBlue,
		BorderColor:     astichartjs.ChartBorderColorBlue,
		Label:           "Current silence threshold",
	})
	o.Chart.Data.Datasets[1].Data = append(o.Chart.Data.Datasets[1].Data, astichartjs.DataPoint{X: 0, Y: o.CurrentSilenceThreshold})
	o.Chart.Data.Datasets[1].Data = append(o.Chart.Data.Datasets[1].Data, astichartjs.DataPoint{X: maxX, Y: o.CurrentSilenceThreshold})

	// Get suggested silence threshold
	o.SuggestedSilenceThreshold = 0.3 * o.MaxAudioLevel

	// Add suggested silence threshold to chart
	o.Chart.Data.Datasets = append(o.Chart.Data.Datasets, astichartjs.Dataset{
		BackgroundColor: astichartjs.ChartBackgroundColorRed,
		BorderColor:     astichartjs.ChartBorderColorRed,
		Label:           "Suggested silence threshold",
	})
	o.Chart.Data.Datasets[2].Data = append(o.Chart.Data.Datasets[2].Data, astichartjs.DataPoint{X: 0, Y: o.SuggestedSilenceThreshold})
	o.Chart.Data.Datasets[2].Data = append(o.Chart.Data.Datasets[2].Data, astichartjs.DataPoint{X: maxX, Y: o.SuggestedSilenceThreshold})
	return
}
