package protocol

import (
	"errors"
	"testing"
)

func TestParseClientMessageAudioChunk(t *testing.T) {
	raw := []byte(`{"type":"audio_chunk","seq":1,"salesperson_pcm16_base64":"AQID","client_pcm16_base64":"BAUG","sample_rate":16000}`)
	msg, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}

	chunk, ok := msg.(AudioChunk)
	if !ok {
		t.Fatalf("message type = %T, want AudioChunk", msg)
	}
	if chunk.Seq != 1 || chunk.SampleRate != 16000 || chunk.ClientBase64 != "BAUG" {
		t.Fatalf("unexpected audio chunk: %+v", chunk)
	}
}

func TestParseClientMessageRejectsUnknownType(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"type":"wat"}`))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
}

func TestParseClientMessageUtterance(t *testing.T) {
	raw := []byte(`{"type":"utterance","role":"client","text":"On perd du temps","evaluate":true}`)
	msg, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}
	u, ok := msg.(Utterance)
	if !ok {
		t.Fatalf("message type = %T, want Utterance", msg)
	}
	if u.Role != "client" || !u.Evaluate {
		t.Fatalf("unexpected utterance: %+v", u)
	}
}

func TestParseClientMessageControl(t *testing.T) {
	msg, err := ParseClientMessage([]byte(`{"type":"control","action":"end"}`))
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}
	if c, ok := msg.(Control); !ok || c.Action != ActionEnd {
		t.Fatalf("message = %#v, want end control", msg)
	}
	if _, err := ParseClientMessage([]byte(`{"type":"control","action":"pause"}`)); err == nil {
		t.Fatalf("expected error for unknown action")
	}
}

func TestParseClientMessageRejectsInvalid(t *testing.T) {
	cases := []string{
		`{"type":"audio_chunk","salesperson_pcm16_base64":"AQID"}`,
		`{"type":"utterance","role":"client","text":""}`,
		`not json`,
	}
	for _, raw := range cases {
		if _, err := ParseClientMessage([]byte(raw)); err == nil {
			t.Fatalf("ParseClientMessage(%s) expected error", raw)
		}
	}
}

func BenchmarkParseClientMessageAudioChunk(b *testing.B) {
	raw := []byte(`{"type":"audio_chunk","seq":7,"salesperson_pcm16_base64":"AQIDBAUGBwgJCgsMDQ4P","client_pcm16_base64":"AQIDBAUGBwgJCgsMDQ4P","sample_rate":16000}`)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		msg, err := ParseClientMessage(raw)
		if err != nil {
			b.Fatalf("ParseClientMessage() error = %v", err)
		}
		if _, ok := msg.(AudioChunk); !ok {
			b.Fatalf("message type = %T, want AudioChunk", msg)
		}
	}
}
