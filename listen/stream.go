package listen

// Stream abstracts the audio capture device so that the gate can be exercised
// without a microphone.
type Stream interface {
	BitDepth() int
	NumChannels() int
	Read() ([]int32, error)
	SampleRate() int
	Start() error
	Stop() error
}
