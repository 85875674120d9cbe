package drift

import (
	"context"
	"testing"

	"github.com/driftos/driftd/pkg/provider/analyzer/heuristic"
)

func TestPreprocess_EmptyInput(t *testing.T) {
	an := heuristic.New()
	got, err := Preprocess(context.Background(), an, "   ")
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if got != "" {
		t.Errorf("Preprocess(whitespace) = %q, want empty", got)
	}
}

func TestPreprocess_DropsLowSignalWords(t *testing.T) {
	an := heuristic.New()
	got, err := Preprocess(context.Background(), an, "Can you please tell me about the kitchen countertops?")
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if got == "" {
		t.Fatal("Preprocess returned empty string for a substantive sentence")
	}
	for _, dropped := range []string{"can", "you", "please", "tell", "me", "the"} {
		for _, word := range splitWords(got) {
			if word == dropped {
				t.Errorf("Preprocess(%q) kept removable word %q: %q", "...", dropped, got)
			}
		}
	}
}

func TestPreprocess_FallbackOnSparseLemmas(t *testing.T) {
	an := heuristic.New()
	got, err := Preprocess(context.Background(), an, "yes")
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	// "yes" alone is a REMOVE_WORDS entry; fewer than 2 lemmas survive, so
	// the fallback path (plain split, small filler set dropped) applies.
	// "yes" is not in the fallback-drop set, so it survives there.
	if got != "yes" {
		t.Errorf("Preprocess(%q) = %q, want fallback to keep the word", "yes", got)
	}
}

func TestPreprocessBatch_PreservesOrderAndLength(t *testing.T) {
	an := heuristic.New()
	texts := []string{"", "Tell me about the new kitchen renovation plans.", "ok"}
	got, err := PreprocessBatch(context.Background(), an, texts)
	if err != nil {
		t.Fatalf("PreprocessBatch: %v", err)
	}
	if len(got) != len(texts) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(texts))
	}
	for i, text := range texts {
		want, err := Preprocess(context.Background(), an, text)
		if err != nil {
			t.Fatalf("Preprocess[%d]: %v", i, err)
		}
		if got[i] != want {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want)
		}
	}
}
