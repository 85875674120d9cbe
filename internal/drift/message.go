package drift

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/driftos/driftd/pkg/provider/analyzer"
)

// These regexes are behavioral contracts, not implementation detail:
// preserved verbatim (case-insensitive) so scoring stays reproducible.
var (
	implicitQuestionRe = regexp.MustCompile(`(?i)\b(tell me|explain|describe|show me|help me understand|i wonder|i'?m curious|wondering if|interested to know|want to know|need to know|let me know)\b`)
	preferenceGateRe   = regexp.MustCompile(`(?i)\b(prefer|rather|instead of|better than|over|compared to|versus|vs\.?)\b`)
	topicPivotRe       = regexp.MustCompile(`(?i)\b(back to|returning to|going back to|anyway|speaking of|on another note|changing topic|different subject|but about|so about|regarding)\b`)
)

var interrogativeFirstWords = buildSet("who", "what", "where", "when", "why", "how", "which", "whom", "whose")

var auxInversionFirstWords = buildSet("can", "could", "would", "should", "do", "does", "did", "is", "are", "was", "were", "will", "have", "has")

// IsQuestion reports whether a sentence is a question, given its own
// parsed sub-document and raw surface text.
func IsQuestion(doc analyzer.Document, rawText string) bool {
	if strings.Contains(rawText, "?") {
		return true
	}
	if len(doc.Tokens) > 0 {
		first := doc.Tokens[0].Lower
		if interrogativeFirstWords[first] || auxInversionFirstWords[first] {
			return true
		}
	}
	return implicitQuestionRe.MatchString(rawText)
}

// HasAnaphoricReference decides whether a sentence probably refers to
// something outside itself, per the demonstrative/it/they heuristics.
func HasAnaphoricReference(doc analyzer.Document) bool {
	localReferents := map[string]bool{}
	for _, tok := range doc.Tokens {
		if tok.POS == "NOUN" || tok.POS == "PROPN" {
			localReferents[strings.ToLower(tok.Lemma)] = true
		}
	}

	hasPluralNounTag := false
	for _, tok := range doc.Tokens {
		if tok.Tag == "NNS" || tok.Tag == "NNPS" {
			hasPluralNounTag = true
			break
		}
	}

	for i, tok := range doc.Tokens {
		switch tok.Lower {
		case "this", "that", "these", "those":
			qualifies := i <= 2 || tok.Dep == "nsubj" || tok.Dep == "nsubjpass"
			if !qualifies {
				continue
			}
			switch tok.Dep {
			case "nsubj", "nsubjpass", "dobj", "pobj", "attr":
				return true
			}
			if tok.POS == "PRON" {
				return true
			}
		case "it", "its":
			if tok.Dep == "expl" {
				continue
			}
			if len(localReferents) > 0 {
				continue
			}
			if tok.POS == "PRON" || tok.POS == "DET" {
				return true
			}
		case "they", "them", "their":
			if hasPluralNounTag {
				continue
			}
			if tok.POS == "PRON" || tok.POS == "DET" {
				return true
			}
		}
	}
	return false
}

// DetectPreference returns whether a sentence expresses a preference, and
// if so, the preferred and rejected noun phrases (either may be unset).
func DetectPreference(doc analyzer.Document, rawText string) (has bool, preferred, rejected string) {
	if !preferenceGateRe.MatchString(rawText) {
		return false, "", ""
	}

	for i, tok := range doc.Tokens {
		switch tok.Lower {
		case "prefer", "rather":
			for _, c := range doc.Children(i) {
				child := doc.Tokens[c]
				if child.Dep == "dobj" {
					preferred = nounPhrase(doc, c)
				}
				if child.Dep == "prep" && child.Lower == "to" {
					for _, pc := range doc.Children(c) {
						if doc.Tokens[pc].Dep == "pobj" {
							rejected = nounPhrase(doc, pc)
						}
					}
				}
			}
		case "over":
			if tok.Dep != "prep" {
				continue
			}
			for _, pc := range doc.Children(i) {
				if doc.Tokens[pc].Dep == "pobj" {
					rejected = nounPhrase(doc, pc)
				}
			}
			head := tok.HeadIndex
			if head != i && head >= 0 && head < len(doc.Tokens) {
				if ht := doc.Tokens[head]; ht.POS == "NOUN" || ht.POS == "PROPN" {
					preferred = nounPhrase(doc, head)
				}
			}
		}
	}
	return true, preferred, rejected
}

// nounPhrase joins the surface text of every token in idx's dependency
// subtree, in ascending token-index order, space-separated and trimmed.
func nounPhrase(doc analyzer.Document, idx int) string {
	indices := doc.Subtree(idx)
	sort.Ints(indices)
	parts := make([]string, 0, len(indices))
	for _, i := range indices {
		parts = append(parts, doc.Tokens[i].Text)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// HasTopicPivot reports whether the raw sentence text matches the
// topic-pivot cue regex.
func HasTopicPivot(rawText string) bool {
	return topicPivotRe.MatchString(rawText)
}

// analyzeSentence builds a [SentenceAnalysis] for one sentence from its
// own parsed sub-document and raw surface text.
func analyzeSentence(doc analyzer.Document, rawText string) SentenceAnalysis {
	hasPref, preferred, rejected := DetectPreference(doc, rawText)
	return SentenceAnalysis{
		Text:            rawText,
		IsQuestion:      IsQuestion(doc, rawText),
		HasAnaphoricRef: HasAnaphoricReference(doc),
		HasPreference:   hasPref,
		HasTopicPivot:   HasTopicPivot(rawText),
		Entities:        ExtractWeightedEntities(doc),
		PreferredPhrase: preferred,
		RejectedPhrase:  rejected,
	}
}

// AnalyzeMessage splits text into sentences via the Analyzer, analyzes
// each sentence against its own re-parsed sub-document, and aggregates
// the results per §4.3: booleans are OR'd across sentences, all_entities
// is computed from the whole parsed document rather than a per-sentence
// union, and compound-pivot detection inspects the first sentence's
// anaphoric flag against later sentences' fresh entities.
func AnalyzeMessage(ctx context.Context, an analyzer.Provider, text string) (MessageAnalysis, error) {
	wholeDoc, err := an.Parse(ctx, text)
	if err != nil {
		return MessageAnalysis{}, fmt.Errorf("drift: analyze message: parse: %w", err)
	}

	msg := MessageAnalysis{
		AllEntities: ExtractWeightedEntities(wholeDoc),
	}

	for _, sent := range wholeDoc.Sentences {
		raw := strings.TrimSpace(sent.Text)
		if raw == "" {
			continue
		}
		subDoc, err := an.Parse(ctx, raw)
		if err != nil {
			return MessageAnalysis{}, fmt.Errorf("drift: analyze message: parse sentence: %w", err)
		}
		sa := analyzeSentence(subDoc, raw)
		msg.Sentences = append(msg.Sentences, sa)

		msg.IsQuestion = msg.IsQuestion || sa.IsQuestion
		msg.HasAnaphoricRef = msg.HasAnaphoricRef || sa.HasAnaphoricRef
		msg.HasPreference = msg.HasPreference || sa.HasPreference
		msg.HasTopicPivot = msg.HasTopicPivot || sa.HasTopicPivot
		if sa.PreferredPhrase != "" {
			msg.PreferredPhrase = sa.PreferredPhrase
		}
		if sa.RejectedPhrase != "" {
			msg.RejectedPhrase = sa.RejectedPhrase
		}
	}

	msg.IsCompound = len(msg.Sentences) > 1
	msg.PivotDetected = computePivotDetected(msg)

	return msg, nil
}

// computePivotDetected implements the compound-pivot rule: true iff the
// message is compound, its first sentence has an anaphoric reference, and
// the union of entity lemmas across sentences 2..N contains at least one
// lemma absent from the first sentence's entity lemmas.
func computePivotDetected(msg MessageAnalysis) bool {
	if !msg.IsCompound || !msg.Sentences[0].HasAnaphoricRef {
		return false
	}
	firstLemmas := msg.Sentences[0].Entities.Lemmas()
	for _, sent := range msg.Sentences[1:] {
		for lemma := range sent.Entities.Lemmas() {
			if !firstLemmas[lemma] {
				return true
			}
		}
	}
	return false
}
