package drift

import (
	"context"
	"math"
	"testing"

	"github.com/driftos/driftd/pkg/provider/analyzer/heuristic"
)

// unitVectorAt returns a 2D unit vector whose cosine similarity with
// (1, 0) is exactly cos.
func unitVectorAt(cos float64) []float32 {
	sin := 1 - cos*cos
	if sin < 0 {
		sin = 0
	}
	return []float32{float32(cos), float32(math.Sqrt(sin))}
}

func TestBoost_ResponseParticleFloor(t *testing.T) {
	an := heuristic.New()
	ctx := context.Background()

	current := []float32{1, 0}
	centroid := unitVectorAt(0.3)

	result, err := Boost(ctx, an, "Yes.", "Do you want to proceed?", current, centroid)
	if err != nil {
		t.Fatalf("Boost: %v", err)
	}
	if result.Raw > 0.5 {
		t.Fatalf("test setup: raw = %v, want <= 0.5", result.Raw)
	}
	if result.Boosted < 0.55 {
		t.Errorf("Boosted = %v, want >= 0.55", result.Boosted)
	}
	if !containsString(result.RulesApplied, "response_particle") {
		t.Errorf("RulesApplied = %v, want to contain response_particle", result.RulesApplied)
	}
}

func TestBoost_PreferenceShortCircuit(t *testing.T) {
	an := heuristic.New()
	ctx := context.Background()

	current := []float32{0.1, 0.9}
	centroid := []float32{0.9, 0.1}

	result, err := Boost(ctx, an, "I prefer black holes to Donald Trump", "anything", current, centroid)
	if err != nil {
		t.Fatalf("Boost: %v", err)
	}
	if len(result.RulesApplied) != 1 || result.RulesApplied[0] != "preference_detected" {
		t.Errorf("RulesApplied = %v, want [preference_detected]", result.RulesApplied)
	}
	if result.Boosted != result.Raw {
		t.Errorf("Boosted = %v, want == Raw (%v)", result.Boosted, result.Raw)
	}
	if result.Current.PreferredPhrase != "black holes" {
		t.Errorf("PreferredPhrase = %q, want %q", result.Current.PreferredPhrase, "black holes")
	}
	if result.Current.RejectedPhrase != "Donald Trump" {
		t.Errorf("RejectedPhrase = %q, want %q", result.Current.RejectedPhrase, "Donald Trump")
	}
}

func TestBoost_AnaphoricFloorWithSuppression(t *testing.T) {
	an := heuristic.New()
	ctx := context.Background()

	current := []float32{0.1, 0.9}
	centroid := []float32{0.9, 0.1}

	result, err := Boost(ctx, an, "That is cool. Anyway, tell me about quantum computing.", "Let's talk about my car.", current, centroid)
	if err != nil {
		t.Fatalf("Boost: %v", err)
	}
	if !result.Current.PivotDetected && !result.Current.HasTopicPivot {
		t.Fatal("test setup: expected either PivotDetected or HasTopicPivot on the current message")
	}
	if result.Boosted != result.Raw {
		t.Errorf("Boosted = %v, want == Raw (%v) when topic-pivot short-circuits", result.Boosted, result.Raw)
	}
	if containsString(result.RulesApplied, "anaphoric_ref") {
		t.Errorf("RulesApplied = %v, want no anaphoric_ref boost when suppressed", result.RulesApplied)
	}
}

func TestBoost_AnaphoricFloorWithoutSuppression(t *testing.T) {
	an := heuristic.New()
	ctx := context.Background()

	current := []float32{0.1, 0.9}
	centroid := []float32{0.9, 0.1}

	result, err := Boost(ctx, an, "That is cool.", "Let's talk about my car.", current, centroid)
	if err != nil {
		t.Fatalf("Boost: %v", err)
	}
	if !result.Current.HasAnaphoricRef {
		t.Fatal("test setup: expected HasAnaphoricRef on the current message")
	}
	if result.Boosted < anaphoricFloor {
		t.Errorf("Boosted = %v, want >= %v", result.Boosted, anaphoricFloor)
	}
	if !containsString(result.RulesApplied, "anaphoric_ref") {
		t.Errorf("RulesApplied = %v, want to contain anaphoric_ref", result.RulesApplied)
	}
}

func TestBoost_ResultIsClampedToUnitRange(t *testing.T) {
	an := heuristic.New()
	ctx := context.Background()

	current := []float32{1, 0}
	centroid := []float32{1, 0}

	result, err := Boost(ctx, an, "Who invented quantum computing?", "What's new?", current, centroid)
	if err != nil {
		t.Fatalf("Boost: %v", err)
	}
	if result.Boosted > 1.0 {
		t.Errorf("Boosted = %v, want <= 1.0", result.Boosted)
	}
}

func containsString(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}
