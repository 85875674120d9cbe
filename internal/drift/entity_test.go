package drift

import (
	"context"
	"testing"

	"github.com/driftos/driftd/pkg/provider/analyzer/heuristic"
)

func TestExtractWeightedEntities_Invariants(t *testing.T) {
	an := heuristic.New()
	doc, err := an.Parse(context.Background(), "We're renovating the kitchen with Granite countertops from Acme Supply.")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	analysis := ExtractWeightedEntities(doc)

	seen := map[string]bool{}
	var total float64
	for _, e := range analysis.Entities {
		if seen[e.Lemma] {
			t.Errorf("duplicate lemma %q in entity analysis", e.Lemma)
		}
		seen[e.Lemma] = true
		total += e.Weight
	}
	if total != analysis.TotalWeight {
		t.Errorf("TotalWeight = %v, want sum of weights %v", analysis.TotalWeight, total)
	}

	for _, e := range analysis.Entities {
		wantHighValue := e.Weight >= 2.0
		if analysis.HighValueLemmas[e.Lemma] != wantHighValue {
			t.Errorf("HighValueLemmas[%q] = %v, want %v (weight %v)", e.Lemma, analysis.HighValueLemmas[e.Lemma], wantHighValue, e.Weight)
		}
	}
}

func TestExtractWeightedEntities_FirstWriterWins(t *testing.T) {
	an := heuristic.New()
	doc, err := an.Parse(context.Background(), "Granite is a nice stone. Granite counters look great.")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	analysis := ExtractWeightedEntities(doc)

	count := 0
	for _, e := range analysis.Entities {
		if e.Lemma == "granite" {
			count++
		}
	}
	if count > 1 {
		t.Errorf("lemma %q appears %d times, want at most once", "granite", count)
	}
}

func TestEntityAnalysis_Lemmas(t *testing.T) {
	analysis := EntityAnalysis{
		Entities: []WeightedEntity{
			{Surface: "Quartz", Lemma: "quartz", Kind: KindNoun, Weight: 1.0},
			{Surface: "Cabinets", Lemma: "cabinets", Kind: KindNoun, Weight: 1.0},
		},
	}
	lemmas := analysis.Lemmas()
	if !lemmas["quartz"] || !lemmas["cabinets"] {
		t.Errorf("Lemmas() = %v, want both quartz and cabinets present", lemmas)
	}
	if len(lemmas) != 2 {
		t.Errorf("len(Lemmas()) = %d, want 2", len(lemmas))
	}
}
