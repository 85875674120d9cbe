package drift

import (
	"context"
	"fmt"
	"strings"

	"github.com/driftos/driftd/pkg/provider/analyzer"
)

// responseParticles is the fixed set of short affirmative, negative,
// acknowledgment, uncertainty, continuation, and discourse-marker tokens
// that only make sense as a direct response to a preceding message,
// regardless of embedding similarity. Preserved verbatim from the
// original response-particle floor this was distilled from.
var responseParticles = buildSet(
	// affirmative
	"yes", "yeah", "yep", "yup", "ya", "aye", "sure", "ok", "okay", "k",
	"absolutely", "definitely", "certainly", "indeed", "right", "correct",
	"agreed", "exactly", "true", "totally", "yea",
	// negative
	"no", "nope", "nah", "never", "negative",
	// acknowledgment
	"thanks", "thank", "thx", "ty", "cheers", "cool", "nice", "great",
	"awesome", "perfect", "wonderful", "excellent", "good", "fine",
	// uncertainty
	"maybe", "perhaps", "possibly", "probably", "idk", "dunno",
	// continuation
	"please", "pls", "plz", "go", "continue", "more", "next",
	// discourse markers
	"well", "so", "anyway", "alright", "hmm", "hm", "oh", "ah", "uh",
)

const (
	responseParticleFloor   = 0.55
	ultraShortResponseFloor = 0.50
	qaPairMultiplier        = 1.3
	anaphoricFloor          = 0.45
	anaphoricMultiplier     = 1.5
	questionMultiplier      = 1.6
	entityOverlapBase       = 1.0
	entityOverlapSpan       = 1.0 // (2.0 - 1.0)
	newEntityWeightFloor    = 4.0
	newHighValueCountFloor  = 2
)

// BoostResult is the full output of the boost/floor engine.
type BoostResult struct {
	Raw          float64
	Boosted      float64
	Multiplier   float64
	RulesApplied []string
	Current      MessageAnalysis
	Previous     MessageAnalysis
	Overlap      OverlapResult
}

// Boost runs the calibrated boost/floor engine over a current and
// previous message, given their embeddings and a branch centroid
// embedding for current. It returns the raw cosine, the boosted score,
// the effective multiplier, and the ordered, deduplicated list of rule
// tags that fired.
func Boost(ctx context.Context, an analyzer.Provider, currentText, previousText string, currentEmbedding, centroid []float32) (BoostResult, error) {
	current, err := AnalyzeMessage(ctx, an, currentText)
	if err != nil {
		return BoostResult{}, fmt.Errorf("drift: boost: analyze current: %w", err)
	}
	previous, err := AnalyzeMessage(ctx, an, previousText)
	if err != nil {
		return BoostResult{}, fmt.Errorf("drift: boost: analyze previous: %w", err)
	}

	raw := CosineSimilarity(currentEmbedding, centroid)
	overlap := Overlap(current.AllEntities, previous.AllEntities)

	result := BoostResult{
		Raw:      raw,
		Current:  current,
		Previous: previous,
		Overlap:  overlap,
	}

	if current.HasPreference {
		result.Boosted = raw
		result.Multiplier = 1.0
		result.RulesApplied = []string{"preference_detected"}
		return result, nil
	}

	if current.HasTopicPivot {
		result.Boosted = raw
		result.Multiplier = 1.0
		result.RulesApplied = []string{}
		return result, nil
	}

	boosted := raw
	var rules []string
	applied := map[string]bool{}
	apply := func(tag string) {
		if !applied[tag] {
			applied[tag] = true
			rules = append(rules, tag)
		}
	}

	words := splitWords(currentText)
	first := ""
	if len(words) > 0 {
		first = words[0]
	}

	switch {
	case responseParticles[first] && len(words) <= 4:
		boosted = maxFloat(boosted, responseParticleFloor)
		apply("response_particle")
	case len(words) <= 2 && !current.IsQuestion:
		boosted = maxFloat(boosted, ultraShortResponseFloor)
		apply("ultra_short_response")
	}

	if previous.IsQuestion && !current.IsQuestion && len(words) <= 10 {
		boosted *= qaPairMultiplier
		apply("qa_pair")
	}

	if current.HasAnaphoricRef {
		if floorSuppressed(current, previous) {
			boosted *= anaphoricMultiplier
			apply("anaphoric_ref_weak")
		} else {
			boosted = maxFloat(boosted, anaphoricFloor)
			boosted *= anaphoricMultiplier
			apply("anaphoric_ref")
		}
	}

	if current.IsQuestion {
		boosted *= questionMultiplier
		apply("question")
	}

	if overlap.Score > 0 {
		boosted *= entityOverlapBase + entityOverlapSpan*minFloat(overlap.Score, 1.0)
		apply("entity_overlap")
	}

	boosted = minFloat(boosted, 1.0)

	result.Boosted = boosted
	if raw == 0 {
		result.Multiplier = 1.0
	} else {
		result.Multiplier = boosted / raw
	}
	result.RulesApplied = rules

	return result, nil
}

// floorSuppressed implements the floor-suppression predicate: the
// anaphoric floor is suppressed when the current message is already
// pivoting or comparing, or when it introduces enough new entity weight
// that "referring back" looks more like "moving on".
func floorSuppressed(current, previous MessageAnalysis) bool {
	if current.HasPreference || current.HasTopicPivot || current.PivotDetected {
		return true
	}

	previousLemmas := previous.AllEntities.Lemmas()
	var newWeight float64
	var newHighValueCount int
	for _, e := range current.AllEntities.Entities {
		if previousLemmas[e.Lemma] {
			continue
		}
		newWeight += e.Weight
		if e.Weight >= 2.0 {
			newHighValueCount++
		}
	}

	return newWeight >= newEntityWeightFloor || newHighValueCount >= newHighValueCountFloor
}

// splitWords lowercases text, splits on whitespace, and strips leading
// and trailing ".,!?" from each field.
func splitWords(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		trimmed := strings.Trim(f, ".,!?")
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
