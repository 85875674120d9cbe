// Package heuristic implements [analyzer.Provider] without any external NLP
// service or model file: part-of-speech tagging, lemmatization, named-entity
// recognition, and noun-chunk/dependency approximation are all done with
// fixed word lists, suffix rules, and a gazetteer. It exists so the drift
// pipeline runs deterministically in tests and in deployments that have no
// CoreNLP server available, the same way the rest of this codebase prefers
// an in-process stand-in over skipping a capability entirely.
package heuristic

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/driftos/driftd/pkg/provider/analyzer"
)

// Provider is a deterministic, dependency-free [analyzer.Provider].
type Provider struct{}

// New returns a ready-to-use heuristic [Provider]. There is no state to
// configure; construction never fails.
func New() *Provider {
	return &Provider{}
}

// ModelID identifies this provider for logging and health reporting.
func (p *Provider) ModelID() string {
	return "heuristic-v1"
}

var tokenRe = regexp.MustCompile(`[A-Za-z]+(?:'[A-Za-z]+)?|[0-9]+|[^\sA-Za-z0-9]`)

// Parse tokenizes and tags text using word lists and suffix rules. It never
// returns an error: there is no external call that can fail.
func (p *Provider) Parse(_ context.Context, text string) (analyzer.Document, error) {
	doc := analyzer.Document{Text: text}

	rawTokens := tokenRe.FindAllStringIndex(text, -1)
	tokens := make([]analyzer.Token, 0, len(rawTokens))
	for i, span := range rawTokens {
		surface := text[span[0]:span[1]]
		tok := analyzer.Token{
			Text:    surface,
			Lower:   strings.ToLower(surface),
			Index:   i,
			IsPunct: isPunct(surface),
			IsSpace: strings.TrimSpace(surface) == "",
		}
		tok.Lemma = lemmatize(tok.Lower)
		tok.POS, tok.Tag = tagPOS(tok.Lower, tok.IsPunct)
		tok.IsStop = stopwords[tok.Lower]
		tokens = append(tokens, tok)
	}
	doc.Tokens = tokens

	doc.Sentences = splitSentences(tokens)
	assignDependencies(tokens, doc.Sentences)
	doc.Tokens = tokens

	doc.Entities = extractEntities(tokens)
	doc.NounChunks = extractNounChunks(tokens)

	return doc, nil
}

func isPunct(s string) bool {
	for _, r := range s {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return len(s) > 0
}

// splitSentences assigns each token to a sentence range using terminal
// punctuation as the boundary, falling back to the whole document as one
// sentence when no boundary is found.
func splitSentences(tokens []analyzer.Token) []analyzer.Sentence {
	if len(tokens) == 0 {
		return nil
	}
	var sentences []analyzer.Sentence
	start := 0
	for i, t := range tokens {
		if t.IsPunct && (t.Text == "." || t.Text == "!" || t.Text == "?") {
			if i >= start {
				sentences = append(sentences, buildSentence(tokens, start, i+1))
			}
			start = i + 1
		}
	}
	if start < len(tokens) {
		sentences = append(sentences, buildSentence(tokens, start, len(tokens)))
	}
	if len(sentences) == 0 {
		sentences = append(sentences, buildSentence(tokens, 0, len(tokens)))
	}
	return sentences
}

func buildSentence(tokens []analyzer.Token, start, end int) analyzer.Sentence {
	var b strings.Builder
	for i := start; i < end; i++ {
		if i > start {
			b.WriteByte(' ')
		}
		b.WriteString(tokens[i].Text)
	}
	return analyzer.Sentence{
		Text:   b.String(),
		Start:  start,
		End:    end,
		Tokens: tokens[start:end],
	}
}

// assignDependencies approximates spaCy-style dependency labels within each
// sentence: the first subject-like token before the main verb is nsubj, the
// first object-like token after it is dobj, prepositions attach to the
// nearest preceding content word as "prep" and their following noun phrase
// as "pobj", and a predicate noun after a copular "be" is attr. This covers
// exactly the dependency relations the drift pipeline inspects.
func assignDependencies(tokens []analyzer.Token, sentences []analyzer.Sentence) {
	for _, sent := range sentences {
		mainVerb := -1
		isCopula := false
		for i := sent.Start; i < sent.End; i++ {
			if tokens[i].POS == "VERB" || tokens[i].POS == "AUX" {
				mainVerb = i
				isCopula = tokens[i].Lemma == "be"
				break
			}
		}
		if mainVerb == -1 {
			for i := sent.Start; i < sent.End; i++ {
				tokens[i].HeadIndex = sent.Start
			}
			continue
		}
		tokens[mainVerb].HeadIndex = mainVerb
		tokens[mainVerb].Dep = "ROOT"

		subjAssigned := false
		for i := sent.Start; i < mainVerb; i++ {
			tokens[i].HeadIndex = mainVerb
			switch tokens[i].POS {
			case "PRON", "NOUN", "PROPN":
				if !subjAssigned {
					tokens[i].Dep = "nsubj"
					subjAssigned = true
				} else {
					tokens[i].Dep = "compound"
				}
			case "DET":
				tokens[i].Dep = "det"
			default:
				tokens[i].Dep = "dep"
			}
		}

		// A verb that takes a "prefer X to Y" complement: the "to" is an
		// argument of the verb, not a modifier attaching to the nearest noun.
		takesToComplement := tokens[mainVerb].Lemma == "prefer"

		lastPrep := -1
		objAssigned := false
		for i := mainVerb + 1; i < sent.End; {
			tok := &tokens[i]
			switch tok.POS {
			case "ADP":
				tok.Dep = "prep"
				if lastPrep == -1 && !(takesToComplement && tok.Lower == "to") {
					tok.HeadIndex = mainVerb
					for j := i - 1; j >= sent.Start; j-- {
						if tokens[j].POS == "NOUN" || tokens[j].POS == "PROPN" {
							tok.HeadIndex = j
							break
						}
					}
				} else {
					tok.HeadIndex = mainVerb
				}
				lastPrep = i
				i++
			case "PRON":
				if lastPrep != -1 {
					tok.Dep = "pobj"
					tok.HeadIndex = lastPrep
					lastPrep = -1
				} else if isCopula {
					tok.Dep = "attr"
					tok.HeadIndex = mainVerb
				} else if !objAssigned {
					tok.Dep = "dobj"
					tok.HeadIndex = mainVerb
					objAssigned = true
				} else {
					tok.Dep = "conj"
					tok.HeadIndex = mainVerb
				}
				i++
			case "NOUN", "PROPN", "DET", "ADJ":
				// Gather the contiguous noun-phrase span so a compound like
				// "black holes" or "Donald Trump" is attached as one unit,
				// with its last noun/proper-noun as the head.
				start := i
				end := i
				for end < sent.End {
					p := tokens[end].POS
					if p != "NOUN" && p != "PROPN" && p != "DET" && p != "ADJ" {
						break
					}
					end++
				}
				head := -1
				for j := end - 1; j >= start; j-- {
					if tokens[j].POS == "NOUN" || tokens[j].POS == "PROPN" {
						head = j
						break
					}
				}
				if head == -1 {
					head = end - 1
				}
				switch {
				case lastPrep != -1:
					tokens[head].Dep = "pobj"
					tokens[head].HeadIndex = lastPrep
					lastPrep = -1
				case isCopula:
					tokens[head].Dep = "attr"
					tokens[head].HeadIndex = mainVerb
				case !objAssigned:
					tokens[head].Dep = "dobj"
					tokens[head].HeadIndex = mainVerb
					objAssigned = true
				default:
					tokens[head].Dep = "conj"
					tokens[head].HeadIndex = mainVerb
				}
				for j := start; j < end; j++ {
					if j == head {
						continue
					}
					tokens[j].HeadIndex = head
					if tokens[j].POS == "DET" {
						tokens[j].Dep = "det"
					} else {
						tokens[j].Dep = "compound"
					}
				}
				i = end
			default:
				tok.Dep = "dep"
				tok.HeadIndex = mainVerb
				i++
			}
		}
	}
}
