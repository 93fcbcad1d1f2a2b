package listen

import (
	"github.com/asticode/go-astilog"
	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"
)

// Initialize initializes portaudio. It must be called once before opening a
// stream, and Terminate once after the last stream is closed.
func Initialize() (err error) {
	if err = portaudio.Initialize(); err != nil {
		err = errors.Wrap(err, "listen: initializing portaudio failed")
		return
	}
	return
}

func Terminate() (err error) {
	if err = portaudio.Terminate(); err != nil {
		err = errors.Wrap(err, "listen: terminating portaudio failed")
		return
	}
	return
}

type PortAudioStream struct {
	b []int32
	o PortAudioStreamOptions
	s *portaudio.Stream
}

type PortAudioStreamOptions struct {
	BitDepth         int `toml:"bit_depth"`
	BufferLength     int `toml:"buffer_length"`
	NumInputChannels int `toml:"num_input_channels"`
	SampleRate       int `toml:"sample_rate"`
}

func NewPortAudioStream(o PortAudioStreamOptions) (s *PortAudioStream, err error) {
	// Default options
	if o.BitDepth <= 0 {
		o.BitDepth = 32
	}
	if o.BufferLength <= 0 {
		o.BufferLength = 5000
	}
	if o.NumInputChannels <= 0 {
		o.NumInputChannels = 1
	}
	if o.SampleRate <= 0 {
		o.SampleRate = 16000
	}

	// Create stream
	s = &PortAudioStream{
		b: make([]int32, o.BufferLength),
		o: o,
	}

	// Log
	astilog.Debugf("listen: opening default stream %p", s)

	// Open default stream
	if s.s, err = portaudio.OpenDefaultStream(s.o.NumInputChannels, 0, float64(s.o.SampleRate), len(s.b), s.b); err != nil {
		err = errors.Wrapf(err, "listen: opening default stream %p failed", s)
		return
	}
	return
}

func (s *PortAudioStream) BitDepth() int { return s.o.BitDepth }

func (s *PortAudioStream) NumChannels() int { return s.o.NumInputChannels }

func (s *PortAudioStream) SampleRate() int { return s.o.SampleRate }

func (s *PortAudioStream) Close() (err error) {
	// Log
	astilog.Debugf("listen: closing stream %p", s)

	// Close
	if err = s.s.Close(); err != nil {
		err = errors.Wrapf(err, "listen: closing stream %p failed", s)
		return
	}
	return
}

func (s *PortAudioStream) Start() (err error) {
	// Log
	astilog.Debugf("listen: starting stream %p", s)

	// Start
	if err = s.s.Start(); err != nil {
		err = errors.Wrapf(err, "listen: starting stream %p failed", s)
		return
	}
	return
}

func (s *PortAudioStream) Stop() (err error) {
	// Log
	astilog.Debugf("listen: stopping stream %p", s)

	// Stop
	if err = s.s.Stop(); err != nil {
		err = errors.Wrapf(err, "listen: stopping stream %p failed", s)
		return
	}
	return
}

func (s *PortAudioStream) Read() (rs []int32, err error) {
	// Read
	if err = s.s.Read(); err != nil {
		err = errors.Wrapf(err, "listen: reading from stream %p failed", s)
		return
	}

	// Clone buffer
	rs = make([]int32, len(s.b))
	copy(rs, s.b)
	return
}
