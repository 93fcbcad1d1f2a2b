package listen

import (
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

const audioFormatPCM = 1

// writeSeeker is an in-memory io.WriteSeeker: the wav encoder needs to seek
// back to patch the header, and segments are shipped over the wire rather
// than written to disk.
type writeSeeker struct {
	b   []byte
	off int
}

func (w *writeSeeker) Write(p []byte) (n int, err error) {
	// Grow
	if w.off+len(p) > len(w.b) {
		w.b = append(w.b, make([]byte, w.off+len(p)-len(w.b))...)
	}

	// Copy
	n = copy(w.b[w.off:], p)
	w.off += n
	return
}

func (w *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	// Compute offset
	var off int
	switch whence {
	case io.SeekStart:
		off = int(offset)
	case io.SeekCurrent:
		off = w.off + int(offset)
	case io.SeekEnd:
		off = len(w.b) + int(offset)
	default:
		return 0, errors.Errorf("listen: invalid whence %d", whence)
	}

	// Check offset
	if off < 0 {
		return 0, errors.Errorf("listen: invalid resulting offset %d", off)
	}
	w.off = off
	return int64(off), nil
}

func encodeWAV(samples []int32, sampleRate, bitDepth, numChannels int) (b []byte, err error) {
	// Convert samples
	data := make([]int, len(samples))
	for idx, s := range samples {
		data[idx] = int(s)
	}

	// Create encoder
	ws := &writeSeeker{}
	e := wav.NewEncoder(ws, sampleRate, bitDepth, numChannels, audioFormatPCM)

	// Write
	if err = e.Write(&audio.IntBuffer{
		Data: data,
		Format: &audio.Format{
			NumChannels: numChannels,
			SampleRate:  sampleRate,
		},
		SourceBitDepth: bitDepth,
	}); err != nil {
		err = errors.Wrap(err, "listen: writing wav buffer failed")
		return
	}

	// Close encoder
	if err = e.Close(); err != nil {
		err = errors.Wrap(err, "listen: closing wav encoder failed")
		return
	}
	b = ws.b
	return
}
