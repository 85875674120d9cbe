package drift

import (
	"strings"

	"github.com/driftos/driftd/pkg/provider/analyzer"
)

// entityWeights maps NER labels to their scoring weight. Unknown labels
// default to 1.0. Preserved verbatim from the original weighted-entity
// design this was distilled from.
var entityWeights = map[string]float64{
	"PERSON":      3.0,
	"ORG":         2.5,
	"GPE":         2.5,
	"LOC":         2.0,
	"PRODUCT":     2.0,
	"EVENT":       2.0,
	"WORK_OF_ART": 1.5,
	"NORP":        1.5,
	"FAC":         1.5,
	"DATE":        0.5,
	"TIME":        0.5,
	"MONEY":       0.5,
	"QUANTITY":    0.3,
	"CARDINAL":    0.2,
	"ORDINAL":     0.2,
}

const (
	defaultNounWeight  = 1.0
	defaultPropnWeight = 2.0
)

// ExtractWeightedEntities walks a parsed document in three passes — named
// entities, bare nouns/proper nouns, then noun chunks — building a
// deduplicated, weighted entity set. A lemma already added by an earlier
// pass is never overwritten by a later one.
func ExtractWeightedEntities(doc analyzer.Document) EntityAnalysis {
	seen := map[string]bool{}
	var entities []WeightedEntity

	add := func(lemma, surface, kind string, weight float64) {
		if seen[lemma] {
			return
		}
		seen[lemma] = true
		entities = append(entities, WeightedEntity{
			Surface: surface,
			Lemma:   lemma,
			Kind:    kind,
			Weight:  weight,
		})
	}

	// Pass 1: named entities.
	for _, ent := range doc.Entities {
		lemma := strings.ToLower(ent.Text)
		if len(lemma) <= 2 {
			continue
		}
		weight, ok := entityWeights[ent.Label]
		if !ok {
			weight = 1.0
		}
		add(lemma, ent.Text, ent.Label, weight)
	}

	// Pass 2: bare nouns/proper nouns.
	for _, tok := range doc.Tokens {
		lemma := strings.ToLower(tok.Lemma)
		if seen[lemma] || len(lemma) <= 3 || tok.IsStop {
			continue
		}
		switch tok.POS {
		case "PROPN":
			add(lemma, tok.Text, KindProperNoun, defaultPropnWeight)
		case "NOUN":
			add(lemma, tok.Text, KindNoun, defaultNounWeight)
		}
	}

	// Pass 3: noun chunks.
	for _, chunk := range doc.NounChunks {
		lemma := strings.ToLower(chunk.Text)
		if seen[lemma] || len(lemma) <= 4 {
			continue
		}
		weight := defaultNounWeight
		if chunk.ContainsProperNoun {
			weight = defaultPropnWeight
		}
		add(lemma, chunk.Text, KindNounChunk, weight)
	}

	total := 0.0
	highValue := map[string]bool{}
	for _, e := range entities {
		total += e.Weight
		if e.Weight >= 2.0 {
			highValue[e.Lemma] = true
		}
	}

	return EntityAnalysis{
		Entities:        entities,
		TotalWeight:     total,
		HighValueLemmas: highValue,
	}
}
