package drift

import (
	"context"
	"testing"

	"github.com/driftos/driftd/pkg/provider/analyzer/heuristic"
)

func TestIsQuestion(t *testing.T) {
	an := heuristic.New()
	cases := map[string]bool{
		"What about granite instead of quartz?": true,
		"Did you see the game last night?":      true,
		"Can we also update the bathroom":       true,
		"Tell me about quantum computing":       true,
		"We're renovating the kitchen.":         false,
		"Looking at new cabinet options.":       false,
	}
	for text, want := range cases {
		doc, err := an.Parse(context.Background(), text)
		if err != nil {
			t.Fatalf("Parse(%q): %v", text, err)
		}
		got := IsQuestion(doc, text)
		if got != want {
			t.Errorf("IsQuestion(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestHasTopicPivot(t *testing.T) {
	cases := map[string]bool{
		"Anyway, tell me about quantum computing.": true,
		"Speaking of which, what's new?":           true,
		"We're renovating the kitchen.":            false,
	}
	for text, want := range cases {
		got := HasTopicPivot(text)
		if got != want {
			t.Errorf("HasTopicPivot(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestDetectPreference(t *testing.T) {
	an := heuristic.New()
	text := "I prefer black holes to Donald Trump"
	doc, err := an.Parse(context.Background(), text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	has, preferred, rejected := DetectPreference(doc, text)
	if !has {
		t.Fatal("DetectPreference: has = false, want true")
	}
	if preferred != "black holes" {
		t.Errorf("preferred = %q, want %q", preferred, "black holes")
	}
	if rejected != "Donald Trump" {
		t.Errorf("rejected = %q, want %q", rejected, "Donald Trump")
	}
}

func TestDetectPreference_NoGateMatch(t *testing.T) {
	an := heuristic.New()
	text := "I like quartz countertops."
	doc, err := an.Parse(context.Background(), text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	has, _, _ := DetectPreference(doc, text)
	if has {
		t.Error("DetectPreference: has = true for a sentence with no preference gate regex match")
	}
}

func TestAnalyzeMessage_AggregatesAcrossSentences(t *testing.T) {
	an := heuristic.New()
	msg, err := AnalyzeMessage(context.Background(), an, "Did you see the game? Anyway, let's talk about the kitchen.")
	if err != nil {
		t.Fatalf("AnalyzeMessage: %v", err)
	}
	if len(msg.Sentences) < 2 {
		t.Fatalf("len(Sentences) = %d, want >= 2", len(msg.Sentences))
	}
	if !msg.IsQuestion {
		t.Error("IsQuestion = false, want true (first sentence is a question)")
	}
	if !msg.HasTopicPivot {
		t.Error("HasTopicPivot = false, want true (second sentence has a pivot cue)")
	}
	if !msg.IsCompound {
		t.Error("IsCompound = false, want true for a multi-sentence message")
	}
}

func TestAnalyzeMessage_SingleSentenceIsNotCompound(t *testing.T) {
	an := heuristic.New()
	msg, err := AnalyzeMessage(context.Background(), an, "We're renovating the kitchen.")
	if err != nil {
		t.Fatalf("AnalyzeMessage: %v", err)
	}
	if msg.IsCompound {
		t.Error("IsCompound = true, want false for a single-sentence message")
	}
	if msg.PivotDetected {
		t.Error("PivotDetected = true, want false for a single-sentence message")
	}
}
