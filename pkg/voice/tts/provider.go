// Package tts provides text-to-speech functionality.
package tts

import (
	"context"
)

// Provider is the interface for text-to-speech services.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Synthesize converts text to audio in one round trip.
	Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (*Synthesis, error)

	// SynthesizeStream converts text to audio, emitting chunks as the
	// provider generates them.
	SynthesizeStream(ctx context.Context, text string, opts SynthesizeOptions) (*SynthesisStream, error)
}

// SynthesizeOptions configures synthesis.
type SynthesizeOptions struct {
	Voice  string // Voice identifier
	Model  string // Provider-specific model
	Format string // Provider output format (e.g. "mp3_44100_128", "pcm_24000")
}

// Synthesis is the result of synthesis.
type Synthesis struct {
	Audio  []byte // Audio data
	Format string // Audio format
}

// SynthesisStream provides streaming audio output.
type SynthesisStream struct {
	chunks chan []byte
	format string
	err    error
	done   chan struct{}
}

// NewSynthesisStream creates a new synthesis stream.
func NewSynthesisStream(format string) *SynthesisStream {
	return &SynthesisStream{
		chunks: make(chan []byte, 64),
		format: format,
		done:   make(chan struct{}),
	}
}

// Chunks returns the channel of audio chunks. It is closed once the
// provider finishes or fails; check Err afterwards.
func (s *SynthesisStream) Chunks() <-chan []byte {
	return s.chunks
}

// Format returns the audio format of the stream.
func (s *SynthesisStream) Format() string {
	return s.format
}

// Err returns the terminal error, if any. It blocks until the stream is
// finished.
func (s *SynthesisStream) Err() error {
	<-s.done
	return s.err
}

// Close abandons the stream. Safe to call more than once.
func (s *SynthesisStream) Close() error {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	return nil
}

// Send delivers a chunk to the consumer. Returns false once the consumer
// is gone. For use by Provider implementations.
func (s *SynthesisStream) Send(chunk []byte) bool {
	select {
	case s.chunks <- chunk:
		return true
	case <-s.done:
		return false
	}
}

// Finish records the terminal error and closes the chunk channel. For
// use by Provider implementations.
func (s *SynthesisStream) Finish(err error) {
	s.err = err
	close(s.chunks)
	s.Close()
}
