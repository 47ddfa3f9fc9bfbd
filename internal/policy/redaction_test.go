package policy

import (
	"strings"
	"testing"

	"github.com/ent0n29/callcoach/internal/conversation"
)

func TestRedactPII(t *testing.T) {
	input := "Écrivez à sam@example.com ou au 06 12 34 56 78, carte 4242 4242 4242 4242, IBAN FR76 3000 6000 0112 3456 7890 189."
	out, changed := RedactPII(input)
	if !changed {
		t.Fatalf("changed = false, want true")
	}
	for _, marker := range []string{"[REDACTED_EMAIL]", "[REDACTED_PHONE]", "[REDACTED_CARD]", "[REDACTED_IBAN]"} {
		if !strings.Contains(out, marker) {
			t.Fatalf("output missing marker %q: %q", marker, out)
		}
	}
}

func TestRedactMessagesKeepsInput(t *testing.T) {
	in := []conversation.Message{
		{Role: conversation.SpeakerClient, Content: "mon mail est jean@acme.fr"},
		{Role: conversation.SpeakerSalesperson, Content: "parfait, merci"},
	}
	out, changed := RedactMessages(in)
	if !changed {
		t.Fatalf("changed = false, want true")
	}
	if out[0].Content != "mon mail est [REDACTED_EMAIL]" || out[1].Content != "parfait, merci" {
		t.Fatalf("RedactMessages() = %+v", out)
	}
	if in[0].Content != "mon mail est jean@acme.fr" {
		t.Fatalf("input was modified: %q", in[0].Content)
	}
	if out[0].Role != conversation.SpeakerClient {
		t.Fatalf("role lost: %+v", out[0])
	}
}
