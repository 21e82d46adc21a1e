package mock

import (
	"context"
	"strings"
	"testing"
)

func TestPartial_ProgressiveAndMonotonic(t *testing.T) {
	e := New()
	ctx := context.Background()

	prev := ""
	for i := 0; i < len(partials); i++ {
		text, err := e.Partial(ctx, i, []byte("chunk"))
		if err != nil {
			t.Fatalf("chunk %d: %v", i, err)
		}
		// Each partial extends the previous one.
		if !strings.HasPrefix(text, prev) {
			t.Errorf("chunk %d: %q does not extend %q", i, text, prev)
		}
		if len(text) < len(prev) {
			t.Errorf("chunk %d: partial shrank from %q to %q", i, prev, text)
		}
		prev = text
	}

	if partials[0] != "Hello" || partials[1] != "Hello world" {
		t.Errorf("unexpected leading fixtures: %q, %q", partials[0], partials[1])
	}
}

func TestPartial_IndexClamped(t *testing.T) {
	e := New()
	ctx := context.Background()

	last, _ := e.Partial(ctx, len(partials)-1, nil)

	beyond, err := e.Partial(ctx, len(partials)+10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if beyond != last {
		t.Errorf("expected index past the end to repeat %q, got %q", last, beyond)
	}

	first, _ := e.Partial(ctx, -1, nil)
	if first != partials[0] {
		t.Errorf("expected negative index to clamp to %q, got %q", partials[0], first)
	}
}

func TestFinal(t *testing.T) {
	text, err := New().Final(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if text != finalText {
		t.Errorf("unexpected final %q", text)
	}
}

func TestTranscribe_AlwaysSucceeds(t *testing.T) {
	res, err := New().Transcribe(context.Background(), nil)
	if err != nil {
		t.Fatalf("mock transcribe must not fail: %v", err)
	}
	if res.Text == "" {
		t.Error("expected non-empty transcript")
	}
	if res.Language != "" {
		t.Errorf("mock engine must not detect a language, got %q", res.Language)
	}
}
