package tts

import (
	"context"
	"encoding/binary"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	texttospeechpb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
)

type GoogleTTS struct {
	c *texttospeech.Client

	LanguageCode string
	SampleRateHz int32
}

func NewGoogleTTS(ctx context.Context) (*GoogleTTS, error) {
	c, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GoogleTTS{
		c:            c,
		LanguageCode: "en-US",
		SampleRateHz: 24000,
	}, nil
}

func (g *GoogleTTS) Close() error { return g.c.Close() }

// voiceName example: "en-US-Neural2-F". stylePrompt is accepted for API
// compatibility; the Cloud TTS voices do not take one.
func (g *GoogleTTS) Synthesize(ctx context.Context, text, voiceName, stylePrompt string) ([]byte, int, error) {
	resp, err := g.c.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: g.LanguageCode,
			Name:         voiceName,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   texttospeechpb.AudioEncoding_LINEAR16,
			SampleRateHertz: g.SampleRateHz,
		},
	})
	if err != nil {
		return nil, 0, err
	}

	// LINEAR16 responses arrive as WAV; strip the container so callers get
	// the raw PCM the rest of the pipeline expects.
	audio := resp.AudioContent
	if len(audio) > 44 && string(audio[0:4]) == "RIFF" && string(audio[8:12]) == "WAVE" {
		rate := int(binary.LittleEndian.Uint32(audio[24:28]))
		return audio[44:], rate, nil
	}
	return audio, int(g.SampleRateHz), nil
}
