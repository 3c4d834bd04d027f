package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/braindump-app/api/pkg/core"
	"github.com/braindump-app/api/pkg/voice/tts"
)

type fakeTTS struct {
	gotText string
	gotOpts tts.SynthesizeOptions
	audio   []byte
	chunks  [][]byte
	err     error
}

func (f *fakeTTS) Name() string { return "fake" }

func (f *fakeTTS) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOptions) (*tts.Synthesis, error) {
	f.gotText, f.gotOpts = text, opts
	if f.err != nil {
		return nil, f.err
	}
	return &tts.Synthesis{Audio: f.audio, Format: opts.Format}, nil
}

func (f *fakeTTS) SynthesizeStream(ctx context.Context, text string, opts tts.SynthesizeOptions) (*tts.SynthesisStream, error) {
	f.gotText, f.gotOpts = text, opts
	if f.err != nil {
		return nil, f.err
	}
	stream := tts.NewSynthesisStream(opts.Format)
	go func() {
		for _, c := range f.chunks {
			if !stream.Send(c) {
				return
			}
		}
		stream.Finish(nil)
	}()
	return stream, nil
}

func newSpeakHandler(f *fakeTTS) *SpeakHandler {
	return &SpeakHandler{
		Provider:      f,
		DefaultVoice:  "voice-1",
		DefaultModel:  "eleven_multilingual_v2",
		DefaultFormat: "mp3_44100_128",
		MaxBodyBytes:  1 << 20,
	}
}

func TestSpeak_Unconfigured(t *testing.T) {
	h := &SpeakHandler{MaxBodyBytes: 1 << 20}
	rec := postJSON(t, h, "/v1/speak", `{"text":"hi"}`)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestSpeak_Defaults(t *testing.T) {
	f := &fakeTTS{audio: []byte("MP3!")}
	rec := postJSON(t, newSpeakHandler(f), "/v1/speak", `{"text":"read this aloud"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "audio/mpeg" {
		t.Fatalf("content-type=%q", got)
	}
	if rec.Body.String() != "MP3!" {
		t.Fatalf("body=%q", rec.Body.String())
	}
	if f.gotOpts.Voice != "voice-1" || f.gotOpts.Format != "mp3_44100_128" || f.gotOpts.Model != "eleven_multilingual_v2" {
		t.Fatalf("opts=%+v", f.gotOpts)
	}
}

func TestSpeak_OverridesVoiceAndFormat(t *testing.T) {
	f := &fakeTTS{audio: []byte("pcm")}
	rec := postJSON(t, newSpeakHandler(f), "/v1/speak",
		`{"text":"hi","voice_id":"custom-voice","format":"pcm_24000"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "audio/pcm" {
		t.Fatalf("content-type=%q", got)
	}
	if f.gotOpts.Voice != "custom-voice" || f.gotOpts.Format != "pcm_24000" {
		t.Fatalf("opts=%+v", f.gotOpts)
	}
}

func TestSpeak_EmptyText(t *testing.T) {
	rec := postJSON(t, newSpeakHandler(&fakeTTS{}), "/v1/speak", `{"text":""}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
	if coreErr := decodeEnvelope(t, rec); coreErr.Param != "text" {
		t.Fatalf("param=%q", coreErr.Param)
	}
}

func TestSpeak_Stream(t *testing.T) {
	f := &fakeTTS{chunks: [][]byte{[]byte("aa"), []byte("bb"), []byte("cc")}}
	rec := postJSON(t, newSpeakHandler(f), "/v1/speak", `{"text":"hi","stream":true}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if rec.Body.String() != "aabbcc" {
		t.Fatalf("body=%q", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "audio/mpeg" {
		t.Fatalf("content-type=%q", got)
	}
}

func TestSpeak_ProviderError(t *testing.T) {
	f := &fakeTTS{err: &core.Error{Type: core.ErrOverloaded, Message: "busy"}}
	rec := postJSON(t, newSpeakHandler(f), "/v1/speak", `{"text":"hi"}`)

	if rec.Code != 529 {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body.String())
	}
}
