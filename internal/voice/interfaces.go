package voice

import "context"

// Transcriber converts captured audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Synthesizer renders text into audio and returns a reference to it.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}
