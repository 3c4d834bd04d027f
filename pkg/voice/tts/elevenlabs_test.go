package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/braindump-app/api/pkg/core"
)

func TestSynthesize_REST(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/text-to-speech/voice123" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("output_format"); got != "mp3_44100_128" {
			t.Errorf("output_format=%q", got)
		}
		if got := r.Header.Get("xi-api-key"); got != "test-key" {
			t.Errorf("xi-api-key=%q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["text"] != "hello there" || body["model_id"] != "eleven_multilingual_v2" {
			t.Errorf("body=%v", body)
		}
		_, _ = w.Write([]byte("ID3fake-mp3-bytes"))
	}))
	defer srv.Close()

	p := NewElevenLabsWithClient("test-key", srv.Client()).WithBaseURL(srv.URL)
	syn, err := p.Synthesize(context.Background(), "hello there", SynthesizeOptions{Voice: "voice123"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(syn.Audio) != "ID3fake-mp3-bytes" || syn.Format != "mp3_44100_128" {
		t.Fatalf("unexpected synthesis: format=%q audio=%q", syn.Format, syn.Audio)
	}
}

func TestSynthesize_ErrorMapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"invalid key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewElevenLabsWithClient("bad-key", srv.Client()).WithBaseURL(srv.URL)
	_, err := p.Synthesize(context.Background(), "hi", SynthesizeOptions{Voice: "v"})
	var coreErr *core.Error
	if !errors.As(err, &coreErr) || coreErr.Type != core.ErrAuthentication {
		t.Fatalf("err=%v, want authentication error", err)
	}
}

func TestSynthesize_RequiresVoice(t *testing.T) {
	p := NewElevenLabs("key")
	_, err := p.Synthesize(context.Background(), "hi", SynthesizeOptions{})
	var coreErr *core.Error
	if !errors.As(err, &coreErr) || coreErr.Type != core.ErrInvalidRequest {
		t.Fatalf("err=%v, want invalid request", err)
	}
}

var upgrader = websocket.Upgrader{}

func TestSynthesizeStream_WebSocket(t *testing.T) {
	chunks := [][]byte{[]byte("audio-one"), []byte("audio-two")}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/v1/text-to-speech/voice123/stream-input") {
			t.Errorf("path=%q", r.URL.Path)
		}
		if got := r.Header.Get("xi-api-key"); got != "test-key" {
			t.Errorf("xi-api-key=%q", got)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		// Expect init, text and flush messages.
		var sawText bool
		for i := 0; i < 3; i++ {
			var msg map[string]any
			if err := conn.ReadJSON(&msg); err != nil {
				t.Errorf("read client message: %v", err)
				return
			}
			if s, _ := msg["text"].(string); strings.Contains(s, "hello") {
				sawText = true
			}
		}
		if !sawText {
			t.Error("client never sent the text payload")
		}

		for _, c := range chunks {
			_ = conn.WriteJSON(map[string]any{"audio": base64.StdEncoding.EncodeToString(c)})
		}
		_ = conn.WriteJSON(map[string]any{"isFinal": true})
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/text-to-speech/{voice_id}/stream-input"
	p := NewElevenLabs("test-key").WithWSBaseURL(wsURL)

	stream, err := p.SynthesizeStream(context.Background(), "hello streaming world", SynthesizeOptions{Voice: "voice123"})
	if err != nil {
		t.Fatalf("SynthesizeStream: %v", err)
	}

	var got []byte
	for chunk := range stream.Chunks() {
		got = append(got, chunk...)
	}
	if err := stream.Err(); err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if string(got) != "audio-oneaudio-two" {
		t.Fatalf("audio=%q", got)
	}
}

func TestSynthesizeStream_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for i := 0; i < 3; i++ {
			var msg map[string]any
			if conn.ReadJSON(&msg) != nil {
				return
			}
		}
		_ = conn.WriteJSON(map[string]any{"error": "quota exceeded"})
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/text-to-speech/{voice_id}/stream-input"
	p := NewElevenLabs("test-key").WithWSBaseURL(wsURL)

	stream, err := p.SynthesizeStream(context.Background(), "hi", SynthesizeOptions{Voice: "v"})
	if err != nil {
		t.Fatalf("SynthesizeStream: %v", err)
	}
	for range stream.Chunks() {
	}
	if err := stream.Err(); err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("stream err=%v, want quota error", err)
	}
}

func TestBuildWSURL(t *testing.T) {
	u, err := buildWSURL(elevenLabsWSBase, "v 1", "", "pcm_24000")
	if err != nil {
		t.Fatalf("buildWSURL: %v", err)
	}
	if !strings.Contains(u, "model_id=eleven_multilingual_v2") || !strings.Contains(u, "output_format=pcm_24000") {
		t.Fatalf("url=%q", u)
	}
	if !strings.Contains(u, "/v1/text-to-speech/v%201/stream-input") {
		t.Fatalf("voice id not escaped: %q", u)
	}
}
