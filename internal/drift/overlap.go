package drift

import (
	"sort"
	"strings"

	"github.com/driftos/driftd/pkg/provider/analyzer"
)

// OverlapResult is the weighted entity-overlap result between a current
// and a previous [EntityAnalysis].
type OverlapResult struct {
	Score     float64
	Shared    []string
	NewWeight float64
}

// Overlap computes the weighted entity overlap between current and
// previous: shared_weight is the sum of current entities' weights whose
// lemma also appears in previous; new_weight is the sum of current
// entities' weights whose lemma does not appear in previous; score is
// shared_weight / current.total_weight, or 0.0 if current has no weight.
func Overlap(current, previous EntityAnalysis) OverlapResult {
	previousLemmas := previous.Lemmas()

	var sharedWeight, newWeight float64
	var shared []string
	for _, e := range current.Entities {
		if previousLemmas[e.Lemma] {
			sharedWeight += e.Weight
			shared = append(shared, e.Lemma)
		} else {
			newWeight += e.Weight
		}
	}
	sort.Strings(shared)

	score := 0.0
	if current.TotalWeight > 0 {
		score = sharedWeight / current.TotalWeight
	}

	return OverlapResult{Score: score, Shared: shared, NewWeight: newWeight}
}

// ClampScore clamps a score to [0, 1], as required of overlap scores
// surfaced in HTTP responses.
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// SetOverlapResult is the result of the looser set-cardinality overlap
// used by the standalone entity-overlap endpoint.
type SetOverlapResult struct {
	Score         float64
	Shared        []string
	Text1Entities []string
	Text2Entities []string
}

// SetOverlap computes the looser recall-oriented overlap used by the
// standalone entity-overlap endpoint: both entity sets are built from NER
// spans, noun/proper-noun lemmas *and* surface forms of length > 3, plus —
// for noun chunks longer than 3 characters — the chunk text and every
// non-stop chunk token (lemma and surface) of length > 3.
// score = |shared| / min(|set1|, |set2|), clamped to [0, 1].
func SetOverlap(doc1, doc2 analyzer.Document) SetOverlapResult {
	set1 := looseEntitySet(doc1)
	set2 := looseEntitySet(doc2)

	shared := make([]string, 0)
	for term := range set1 {
		if set2[term] {
			shared = append(shared, term)
		}
	}
	sort.Strings(shared)

	denom := len(set1)
	if len(set2) < denom {
		denom = len(set2)
	}
	score := 0.0
	if denom > 0 {
		score = float64(len(shared)) / float64(denom)
	}

	return SetOverlapResult{
		Score:         ClampScore(score),
		Shared:        shared,
		Text1Entities: sortedKeys(set1),
		Text2Entities: sortedKeys(set2),
	}
}

func looseEntitySet(doc analyzer.Document) map[string]bool {
	set := map[string]bool{}

	for _, ent := range doc.Entities {
		set[strings.ToLower(ent.Text)] = true
	}

	for _, tok := range doc.Tokens {
		if tok.POS != "NOUN" && tok.POS != "PROPN" {
			continue
		}
		if len(tok.Lemma) > 3 {
			set[strings.ToLower(tok.Lemma)] = true
		}
		if len(tok.Text) > 3 {
			set[strings.ToLower(tok.Text)] = true
		}
	}

	for _, chunk := range doc.NounChunks {
		if len(chunk.Text) <= 3 {
			continue
		}
		set[strings.ToLower(chunk.Text)] = true
		for i := chunk.Start; i < chunk.End && i < len(doc.Tokens); i++ {
			tok := doc.Tokens[i]
			if tok.IsStop {
				continue
			}
			if len(tok.Lemma) > 3 {
				set[strings.ToLower(tok.Lemma)] = true
			}
			if len(tok.Text) > 3 {
				set[strings.ToLower(tok.Text)] = true
			}
		}
	}

	return set
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
