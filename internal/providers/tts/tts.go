package tts

import "context"

// Provider synthesizes speech for narration. Implementations return raw
// little-endian 16-bit mono PCM plus its sample rate; callers wrap it in a
// WAV container for playback.
type Provider interface {
	Synthesize(ctx context.Context, text, voiceName, stylePrompt string) (pcm []byte, sampleRate int, err error)
	Close() error
}
