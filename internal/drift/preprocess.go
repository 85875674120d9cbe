package drift

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/driftos/driftd/pkg/provider/analyzer"
)

// removeWords is the fixed preprocessor deletion set: articles and
// determiners, politeness markers, fillers, auxiliary and
// question-scaffolding verbs, common low-signal verbs, pronouns
// (including "-pron-"), deictic question words, common prepositions,
// and common conjunctions. Preserved verbatim from the original
// preprocessing pipeline this was distilled from.
var removeWords = buildSet(
	// articles and determiners
	"a", "an", "the", "this", "that", "these", "those", "some", "any",
	// politeness
	"please", "pls", "plz", "thanks", "thank", "thankyou", "ty", "sorry",
	// fillers
	"just", "really", "very", "quite", "kind", "kinda", "sort", "sortof",
	"actually", "basically", "literally", "so", "much", "um", "uh", "well",
	"like", "ok", "okay", "yeah", "yes", "no", "right",
	// question scaffolding
	"can", "could", "would", "should", "do", "be", "have", "will",
	"wonder", "maybe", "perhaps", "possible", "possibly",
	// low-signal verbs
	"get", "go", "come", "let", "make", "take", "give", "need", "want",
	"know", "think", "see", "look", "find", "tell", "say", "ask",
	// pronouns
	"i", "me", "my", "mine", "we", "us", "our", "ours", "you", "your",
	"yours", "he", "him", "his", "she", "her", "hers", "it", "its",
	"they", "them", "their", "theirs", "-pron-",
	// deictic question words
	"here", "there", "now", "then", "where", "when", "what", "how",
	"why", "which",
	// prepositions
	"to", "of", "in", "for", "on", "with", "at", "by", "from", "as",
	// conjunctions
	"and", "or", "but", "if", "because", "while", "although",
)

// fallbackDrop is the small filler set dropped by the preprocess fallback
// path when too few lemmas survive the main filter.
var fallbackDrop = buildSet("um", "uh", "like", "just", "really", "actually", "basically")

func buildSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

var nonWordChar = regexp.MustCompile(`[^A-Za-z0-9_\s]`)
var whitespaceRun = regexp.MustCompile(`\s+`)

// clean applies step 2 of the preprocess algorithm: lowercase, replace
// non-word characters with a space, collapse whitespace, trim.
func clean(text string) string {
	lower := strings.ToLower(text)
	stripped := nonWordChar.ReplaceAllString(lower, " ")
	collapsed := whitespaceRun.ReplaceAllString(stripped, " ")
	return strings.TrimSpace(collapsed)
}

// Preprocess normalizes raw text into a whitespace-joined sequence of
// lowercased, topic-bearing lemmas suitable as encoder input.
func Preprocess(ctx context.Context, an analyzer.Provider, text string) (string, error) {
	cleaned := clean(text)
	if cleaned == "" {
		return "", nil
	}

	doc, err := an.Parse(ctx, cleaned)
	if err != nil {
		return "", fmt.Errorf("drift: preprocess: analyze: %w", err)
	}

	kept := make([]string, 0, len(doc.Tokens))
	for _, tok := range doc.Tokens {
		lemma := strings.ToLower(tok.Lemma)
		if removeWords[lemma] || len(lemma) <= 1 || tok.IsPunct || tok.IsSpace {
			continue
		}
		kept = append(kept, lemma)
	}

	if len(kept) >= 2 {
		return strings.Join(kept, " "), nil
	}
	return fallback(cleaned), nil
}

// fallback implements step 6: a plain whitespace split with a small
// filler set and single-character tokens dropped, used when too few
// lemmas survive the analyzer-driven filter.
func fallback(cleaned string) string {
	fields := strings.Fields(cleaned)
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		if fallbackDrop[f] || len(f) <= 1 {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// PreprocessBatch preprocesses N texts, preserving 1:1 input/output
// ordering. Empty inputs map to empty outputs and are not dropped.
func PreprocessBatch(ctx context.Context, an analyzer.Provider, texts []string) ([]string, error) {
	out := make([]string, len(texts))
	for i, t := range texts {
		p, err := Preprocess(ctx, an, t)
		if err != nil {
			return nil, fmt.Errorf("drift: preprocess batch[%d]: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}
