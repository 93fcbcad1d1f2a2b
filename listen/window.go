package listen

import (
	astipcm "github.com/asticode/go-astitools/pcm"
)

// window is one fixed-duration capture unit. It accumulates raw samples and,
// every sample interval worth of them, a normalized volume sample used for
// the gate decision. Windows are independent: gating never spans two of them.
type window struct {
	bitDepth         int
	numChannels      int
	samples          []int32
	samplesPerVolume int
	samplesPerWindow int
	sampleRate       int
	volumeCursor     int
	volumes          []float64
}

func newWindow(o GateOptions, s Stream) (w *window) {
	// Create window
	w = &window{
		bitDepth:    s.BitDepth(),
		numChannels: s.NumChannels(),
		sampleRate:  s.SampleRate(),
	}

	// Compute sizes
	w.samplesPerVolume = int(float64(w.sampleRate*w.numChannels) * o.SampleInterval.Seconds())
	if w.samplesPerVolume <= 0 {
		w.samplesPerVolume = 1
	}
	w.samplesPerWindow = int(float64(w.sampleRate*w.numChannels) * o.WindowDuration.Seconds())
	return
}

func (w *window) add(samples []int32) {
	// Append
	w.samples = append(w.samples, samples...)

	// Compute volume samples
	for w.volumeCursor+w.samplesPerVolume <= len(w.samples) {
		chunk := w.samples[w.volumeCursor : w.volumeCursor+w.samplesPerVolume]
		w.volumes = append(w.volumes, audioLevel(chunk)/maxAudioLevel(w.bitDepth))
		w.volumeCursor += w.samplesPerVolume
	}
}

func (w *window) full() bool {
	return len(w.samples) >= w.samplesPerWindow
}

// speechRatio is the fraction of volume samples above the silence threshold.
func (w *window) speechRatio(silenceThreshold float64) float64 {
	if len(w.volumes) == 0 {
		return 0
	}
	var above int
	for _, v := range w.volumes {
		if v > silenceThreshold {
			above++
		}
	}
	return float64(above) / float64(len(w.volumes))
}

func (w *window) encode() ([]byte, error) {
	return encodeWAV(w.samples, w.sampleRate, w.bitDepth, w.numChannels)
}

func maxAudioLevel(bitDepth int) float64 {
	return float64(int64(1) << uint(bitDepth-1))
}

// audioLevel adapts int32 samples to astipcm.AudioLevel, which takes ints.
func audioLevel(samples []int32) float64 {
	is := make([]int, len(samples))
	for i, s := range samples {
		is[i] = int(s)
	}
	return astipcm.AudioLevel(is)
}
