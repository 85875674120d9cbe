// Package corenlp implements [analyzer.Provider] against a running Stanford
// CoreNLP server's JSON annotation endpoint, the way
// pkg/provider/encoder/ollama talks to a running Ollama server: a plain
// net/http client posting to a well-known URL, no generated SDK.
package corenlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/driftos/driftd/pkg/provider/analyzer"
)

// Annotator names required from the CoreNLP pipeline, mirroring the
// "BasicAnnotators"+"NERAnnotators"+"depparse" combination.
const defaultAnnotators = "tokenize,ssplit,pos,lemma,ner,depparse"

// Provider calls a live CoreNLP server's annotate endpoint.
type Provider struct {
	baseURL    string
	annotators string
	httpClient *http.Client
}

// Option configures a [Provider].
type Option func(*Provider)

// WithTimeout overrides the default HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.httpClient.Timeout = d }
}

// WithAnnotators overrides the default annotator pipeline string.
func WithAnnotators(annotators string) Option {
	return func(p *Provider) { p.annotators = annotators }
}

// New returns a [Provider] pointed at a CoreNLP server listening at
// baseURL (e.g. "http://localhost:9000").
func New(baseURL string, opts ...Option) *Provider {
	p := &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		annotators: defaultAnnotators,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ModelID identifies this provider for logging and health reporting.
func (p *Provider) ModelID() string {
	return "corenlp:" + p.baseURL
}

// wireToken mirrors the per-token fields CoreNLP's JSON output emits for
// each annotator in defaultAnnotators.
type wireToken struct {
	Index              int    `json:"index"`
	Word               string `json:"word"`
	Lemma              string `json:"lemma"`
	POS                string `json:"pos"`
	NER                string `json:"ner"`
	CharacterOffsetBeg int    `json:"characterOffsetBegin"`
	CharacterOffsetEnd int    `json:"characterOffsetEnd"`
}

type wireDepEdge struct {
	Dep            string `json:"dep"`
	Governor       int    `json:"governor"`
	Dependent      int    `json:"dependent"`
	DependentGloss string `json:"dependentGloss"`
}

type wireSentence struct {
	Index             int           `json:"index"`
	Tokens            []wireToken   `json:"tokens"`
	BasicDependencies []wireDepEdge `json:"basicDependencies"`
}

type wireResponse struct {
	Sentences []wireSentence `json:"sentences"`
}

// Parse posts text to the CoreNLP annotate endpoint and translates the
// response into an [analyzer.Document].
func (p *Provider) Parse(ctx context.Context, text string) (analyzer.Document, error) {
	endpoint := p.baseURL + "/?properties=" + url.QueryEscape(fmt.Sprintf(`{"annotators":"%s","outputFormat":"json"}`, p.annotators))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(text))
	if err != nil {
		return analyzer.Document{}, fmt.Errorf("corenlp: build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return analyzer.Document{}, fmt.Errorf("corenlp: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return analyzer.Document{}, fmt.Errorf("corenlp: server returned %s: %s", resp.Status, string(body))
	}

	var wire wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return analyzer.Document{}, fmt.Errorf("corenlp: decode response: %w", err)
	}

	return translate(text, wire), nil
}

// translate converts the CoreNLP wire shape into an [analyzer.Document],
// merging per-sentence token indices into one document-wide token slice
// and re-basing dependency governor/dependent indices accordingly.
func translate(text string, wire wireResponse) analyzer.Document {
	doc := analyzer.Document{Text: text}

	var tokens []analyzer.Token
	var nerTags []string
	var sentences []analyzer.Sentence

	for _, s := range wire.Sentences {
		base := len(tokens)
		start := base
		var words []string
		for _, wt := range s.Tokens {
			lower := strings.ToLower(wt.Word)
			pos, isStop := coarsePOS(wt.POS), stopTag(wt.POS, lower)
			tokens = append(tokens, analyzer.Token{
				Text:    wt.Word,
				Lower:   lower,
				Lemma:   strings.ToLower(wt.Lemma),
				POS:     pos,
				Tag:     wt.POS,
				Index:   base + wt.Index - 1,
				IsStop:  isStop,
				IsPunct: isPunctTag(wt.POS),
			})
			nerTags = append(nerTags, wt.NER)
			words = append(words, wt.Word)
		}
		end := len(tokens)
		for _, e := range s.BasicDependencies {
			if e.Governor == 0 {
				continue
			}
			depIdx := base + e.Dependent - 1
			govIdx := base + e.Governor - 1
			if depIdx >= start && depIdx < end {
				tokens[depIdx].Dep = e.Dep
				tokens[depIdx].HeadIndex = govIdx
			}
		}
		sentences = append(sentences, analyzer.Sentence{
			Text:   strings.Join(words, " "),
			Start:  start,
			End:    end,
			Tokens: tokens[start:end],
		})
	}

	doc.Tokens = tokens
	doc.Sentences = sentences
	doc.Entities = extractEntitiesFromNER(tokens, nerTags)
	doc.NounChunks = approximateNounChunks(tokens)
	return doc
}

// coarsePOS maps a Penn Treebank tag to the coarse tag set the drift
// pipeline inspects (NOUN, PROPN, VERB, PRON, DET, ADP, ADJ, PUNCT).
func coarsePOS(tag string) string {
	switch {
	case tag == "NNP" || tag == "NNPS":
		return "PROPN"
	case strings.HasPrefix(tag, "NN"):
		return "NOUN"
	case strings.HasPrefix(tag, "VB"):
		return "VERB"
	case strings.HasPrefix(tag, "PRP"):
		return "PRON"
	case tag == "DT":
		return "DET"
	case tag == "IN":
		return "ADP"
	case strings.HasPrefix(tag, "JJ"):
		return "ADJ"
	case isPunctTag(tag):
		return "PUNCT"
	default:
		return "X"
	}
}

func isPunctTag(tag string) bool {
	switch tag {
	case ".", ",", ":", "``", "''", "-LRB-", "-RRB-":
		return true
	}
	return false
}

func stopTag(tag, lower string) bool {
	switch {
	case strings.HasPrefix(tag, "PRP"), tag == "DT", tag == "IN", tag == "CC":
		return true
	case tag == "TO":
		return true
	}
	return lower == "be" || lower == "have" || lower == "do"
}

func extractEntitiesFromNER(tokens []analyzer.Token, nerTags []string) []analyzer.EntitySpan {
	var spans []analyzer.EntitySpan
	i := 0
	for i < len(tokens) {
		label := nerTags[i]
		if label == "" || label == "O" {
			i++
			continue
		}
		start := i
		for i < len(tokens) && nerTags[i] == label {
			i++
		}
		spans = append(spans, analyzer.EntitySpan{
			Text:  joinRange(tokens, start, i),
			Label: label,
			Start: start,
			End:   i,
		})
	}
	return spans
}

func joinRange(tokens []analyzer.Token, start, end int) string {
	var b strings.Builder
	for i := start; i < end; i++ {
		if i > start {
			b.WriteByte(' ')
		}
		b.WriteString(tokens[i].Text)
	}
	return b.String()
}

// approximateNounChunks builds chunks as maximal DET/ADJ/NOUN/PROPN runs
// ending in a noun, since CoreNLP's JSON output has no native noun_chunks
// concept (unlike spaCy).
func approximateNounChunks(tokens []analyzer.Token) []analyzer.NounChunk {
	var chunks []analyzer.NounChunk
	i := 0
	for i < len(tokens) {
		if !isChunkStart(tokens[i]) {
			i++
			continue
		}
		start := i
		hasProper := false
		for i < len(tokens) && isChunkStart(tokens[i]) {
			if tokens[i].POS == "PROPN" {
				hasProper = true
			}
			i++
		}
		end := i
		for end > start && tokens[end-1].POS != "NOUN" && tokens[end-1].POS != "PROPN" {
			end--
		}
		if end > start {
			chunks = append(chunks, analyzer.NounChunk{
				Text:               joinRange(tokens, start, end),
				Start:              start,
				End:                end,
				ContainsProperNoun: hasProper,
			})
		}
	}
	return chunks
}

func isChunkStart(t analyzer.Token) bool {
	return t.POS == "DET" || t.POS == "ADJ" || t.POS == "NOUN" || t.POS == "PROPN"
}
