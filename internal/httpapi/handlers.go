// Package httpapi exposes the drift-analysis pipeline over HTTP: JSON
// request/response handlers for embedding, preprocessing, similarity,
// drift routing, entity overlap, and the full message/drift analysis
// endpoints. The package owns input validation, response shaping, and
// conditional preprocessing; the scoring logic itself lives in package
// drift.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/driftos/driftd/internal/drift"
	"github.com/driftos/driftd/internal/observe"
	"github.com/driftos/driftd/pkg/provider/analyzer"
	"github.com/driftos/driftd/pkg/provider/encoder"
)

// Config holds the operator-configurable defaults the HTTP surface falls
// back to when a request doesn't supply its own thresholds.
type Config struct {
	// DriftThreshold is the default branch_threshold for POST /drift.
	DriftThreshold float64

	// ContinueThreshold is the default stay_threshold for POST /drift.
	ContinueThreshold float64
}

// API wraps the Encoder and Analyzer capabilities with the eight HTTP
// endpoints described in the service's external interface. A nil provider
// is legal at construction time; any handler that needs it responds 503
// until a provider is configured.
type API struct {
	encoder  encoder.Provider
	analyzer analyzer.Provider
	cfg      Config
	metrics  *observe.Metrics
}

// New builds an [API] around the given providers and config. Either
// provider may be nil.
func New(enc encoder.Provider, an analyzer.Provider, cfg Config) *API {
	return &API{
		encoder:  enc,
		analyzer: an,
		cfg:      cfg,
		metrics:  observe.DefaultMetrics(),
	}
}

// Register adds all eight routes to mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc("POST /embed", a.handleEmbed)
	mux.HandleFunc("POST /preprocess", a.handlePreprocess)
	mux.HandleFunc("POST /similarity", a.handleSimilarity)
	mux.HandleFunc("POST /drift", a.handleDrift)
	mux.HandleFunc("POST /entity-overlap", a.handleEntityOverlap)
	mux.HandleFunc("POST /analyze-message", a.handleAnalyzeMessage)
	mux.HandleFunc("POST /analyze-drift", a.handleAnalyzeDrift)
}

// handleHealth serves GET /health.
func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.encoder == nil {
		writeError(w, r, modelUnavailable("model not loaded"))
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Model:     a.encoder.ModelID(),
		Device:    "cpu",
		Dimension: a.encoder.Dimensions(),
	})
}

// handleEmbed serves POST /embed.
func (a *API) handleEmbed(w http.ResponseWriter, r *http.Request) {
	var req embedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if a.encoder == nil {
		writeError(w, r, modelUnavailable("encoder not loaded"))
		return
	}

	texts := []string(req.Text)
	doPreprocess := boolOrDefault(req.Preprocess, true)

	inputs := texts
	var preprocessedTexts []string
	if doPreprocess {
		if a.analyzer == nil {
			writeError(w, r, modelUnavailable("analyzer not loaded"))
			return
		}
		pre, err := a.preprocessBatch(r.Context(), texts)
		if err != nil {
			writeError(w, r, computeFailure(err.Error()))
			return
		}
		preprocessedTexts = pre
		inputs = pre
	}

	embeddings, err := a.embedBatch(r.Context(), inputs)
	if err != nil {
		writeError(w, r, computeFailure(err.Error()))
		return
	}

	resp := embedResponse{
		Embeddings: embeddings,
		Dimension:  a.encoder.Dimensions(),
		Model:      a.encoder.ModelID(),
	}
	if doPreprocess {
		resp.PreprocessedTexts = preprocessedTexts
	}
	writeJSON(w, http.StatusOK, resp)
}

// handlePreprocess serves POST /preprocess.
func (a *API) handlePreprocess(w http.ResponseWriter, r *http.Request) {
	var req preprocessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if a.analyzer == nil {
		writeError(w, r, modelUnavailable("analyzer not loaded"))
		return
	}

	texts := []string(req.Text)
	preprocessed, err := a.preprocessBatch(r.Context(), texts)
	if err != nil {
		writeError(w, r, computeFailure(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, preprocessResponse{
		Original:     texts,
		Preprocessed: preprocessed,
	})
}

// handleSimilarity serves POST /similarity.
func (a *API) handleSimilarity(w http.ResponseWriter, r *http.Request) {
	var req similarityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if a.encoder == nil {
		writeError(w, r, modelUnavailable("encoder not loaded"))
		return
	}

	doPreprocess := boolOrDefault(req.Preprocess, true)

	input1, input2 := req.Text1, req.Text2
	var pre1, pre2 string
	if doPreprocess {
		if a.analyzer == nil {
			writeError(w, r, modelUnavailable("analyzer not loaded"))
			return
		}
		var err error
		pre1, err = a.preprocess(r.Context(), req.Text1)
		if err != nil {
			writeError(w, r, computeFailure(err.Error()))
			return
		}
		pre2, err = a.preprocess(r.Context(), req.Text2)
		if err != nil {
			writeError(w, r, computeFailure(err.Error()))
			return
		}
		input1, input2 = pre1, pre2
	}

	vec1, err := a.embed(r.Context(), input1)
	if err != nil {
		writeError(w, r, computeFailure(err.Error()))
		return
	}
	vec2, err := a.embed(r.Context(), input2)
	if err != nil {
		writeError(w, r, computeFailure(err.Error()))
		return
	}

	sim := drift.CosineSimilarity(vec1, vec2)
	adjusted := drift.AdjustedSimilarity(sim, req.Text1, req.Text2)

	resp := similarityResponse{
		Similarity:         sim,
		AdjustedSimilarity: adjusted,
	}
	if doPreprocess {
		resp.PreprocessedText1 = pre1
		resp.PreprocessedText2 = pre2
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDrift serves POST /drift: a plain cosine similarity between anchor
// and message, mapped to a routing action via configurable thresholds. It
// does not run the boost/floor engine — see POST /analyze-drift for that.
func (a *API) handleDrift(w http.ResponseWriter, r *http.Request) {
	var req driftRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if a.encoder == nil {
		writeError(w, r, modelUnavailable("encoder not loaded"))
		return
	}

	doPreprocess := boolOrDefault(req.Preprocess, true)

	inputAnchor, inputMessage := req.Anchor, req.Message
	var preAnchor, preMessage string
	if doPreprocess {
		if a.analyzer == nil {
			writeError(w, r, modelUnavailable("analyzer not loaded"))
			return
		}
		var err error
		preAnchor, err = a.preprocess(r.Context(), req.Anchor)
		if err != nil {
			writeError(w, r, computeFailure(err.Error()))
			return
		}
		preMessage, err = a.preprocess(r.Context(), req.Message)
		if err != nil {
			writeError(w, r, computeFailure(err.Error()))
			return
		}
		inputAnchor, inputMessage = preAnchor, preMessage
	}

	vecAnchor, err := a.embed(r.Context(), inputAnchor)
	if err != nil {
		writeError(w, r, computeFailure(err.Error()))
		return
	}
	vecMessage, err := a.embed(r.Context(), inputMessage)
	if err != nil {
		writeError(w, r, computeFailure(err.Error()))
		return
	}

	sim := drift.CosineSimilarity(vecAnchor, vecMessage)

	stayThreshold := floatOrDefault(req.StayThreshold, a.cfg.ContinueThreshold)
	branchThreshold := floatOrDefault(req.BranchThreshold, a.cfg.DriftThreshold)

	resp := driftResponse{
		Similarity: sim,
		Action:     driftAction(sim, stayThreshold, branchThreshold),
	}
	if doPreprocess {
		resp.PreprocessedAnchor = preAnchor
		resp.PreprocessedMessage = preMessage
	}
	writeJSON(w, http.StatusOK, resp)
}

// driftAction maps a similarity score to a routing action per the
// documented threshold semantics: sim > stay -> STAY;
// branch < sim <= stay -> BRANCH_SAME_CLUSTER; sim <= branch ->
// BRANCH_NEW_CLUSTER.
func driftAction(sim, stayThreshold, branchThreshold float64) string {
	switch {
	case sim > stayThreshold:
		return "STAY"
	case sim > branchThreshold:
		return "BRANCH_SAME_CLUSTER"
	default:
		return "BRANCH_NEW_CLUSTER"
	}
}

// handleEntityOverlap serves POST /entity-overlap, using the looser
// set-cardinality overlap form optimized for rare-term recall.
func (a *API) handleEntityOverlap(w http.ResponseWriter, r *http.Request) {
	var req entityOverlapRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if a.analyzer == nil {
		writeError(w, r, modelUnavailable("analyzer not loaded"))
		return
	}

	doc1, err := a.parse(r.Context(), req.Text1)
	if err != nil {
		writeError(w, r, computeFailure(err.Error()))
		return
	}
	doc2, err := a.parse(r.Context(), req.Text2)
	if err != nil {
		writeError(w, r, computeFailure(err.Error()))
		return
	}

	result := drift.SetOverlap(doc1, doc2)
	writeJSON(w, http.StatusOK, entityOverlapResponse{
		HasOverlap:     len(result.Shared) > 0,
		OverlapScore:   result.Score,
		SharedEntities: result.Shared,
		Text1Entities:  result.Text1Entities,
		Text2Entities:  result.Text2Entities,
	})
}

// handleAnalyzeMessage serves POST /analyze-message: the linguistic
// verdict for current vs previous, without any embedding or boost step.
func (a *API) handleAnalyzeMessage(w http.ResponseWriter, r *http.Request) {
	var req analyzeMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if a.analyzer == nil {
		writeError(w, r, modelUnavailable("analyzer not loaded"))
		return
	}

	current, err := drift.AnalyzeMessage(r.Context(), a.analyzer, req.Current)
	if err != nil {
		writeError(w, r, computeFailure(err.Error()))
		return
	}
	previous, err := drift.AnalyzeMessage(r.Context(), a.analyzer, req.Previous)
	if err != nil {
		writeError(w, r, computeFailure(err.Error()))
		return
	}

	overlap := drift.Overlap(current.AllEntities, previous.AllEntities)
	resp := toAnalyzeMessageResponse(current, previous, overlap)
	// This endpoint alone ORs a raw-text fallback into the anaphora verdict;
	// /analyze-drift keeps the bare dependency-based flag.
	resp.CurrentHasAnaphoricRef = resp.CurrentHasAnaphoricRef || anaphoricTextRe.MatchString(req.Current)
	writeJSON(w, http.StatusOK, resp)
}

// anaphoricTextRe is the surface-level anaphora fallback applied by
// /analyze-message on top of the dependency-based detector. Preserved
// verbatim (case-insensitive) so the endpoint's verdict stays reproducible.
var anaphoricTextRe = regexp.MustCompile(`(?i)\b(that'?s?|this|it'?s?|those|these|the same|them|its)\b`)

// handleAnalyzeDrift serves POST /analyze-drift: the full boost/floor
// engine over caller-supplied embeddings plus the linguistic analysis
// view of current vs previous.
func (a *API) handleAnalyzeDrift(w http.ResponseWriter, r *http.Request) {
	var req analyzeDriftRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if len(req.CurrentEmbedding) != len(req.BranchCentroid) {
		writeError(w, r, badRequest(fmt.Sprintf(
			"current_embedding length %d does not match branch_centroid length %d",
			len(req.CurrentEmbedding), len(req.BranchCentroid))))
		return
	}
	if a.analyzer == nil {
		writeError(w, r, modelUnavailable("analyzer not loaded"))
		return
	}

	result, err := drift.Boost(r.Context(), a.analyzer, req.Current, req.Previous, req.CurrentEmbedding, req.BranchCentroid)
	if err != nil {
		writeError(w, r, computeFailure(err.Error()))
		return
	}

	for _, rule := range result.RulesApplied {
		a.metrics.RecordBoostRule(r.Context(), rule)
	}

	rulesApplied := result.RulesApplied
	if rulesApplied == nil {
		rulesApplied = []string{}
	}

	writeJSON(w, http.StatusOK, analyzeDriftResponse{
		RawSimilarity:     result.Raw,
		BoostedSimilarity: result.Boosted,
		BoostMultiplier:   result.Multiplier,
		BoostsApplied:     rulesApplied,
		Analysis:          toAnalyzeMessageResponse(result.Current, result.Previous, result.Overlap),
	})
}

// toAnalyzeMessageResponse projects a current/previous [drift.MessageAnalysis]
// pair plus their overlap into the wire shape shared by /analyze-message and
// the nested analysis field of /analyze-drift.
func toAnalyzeMessageResponse(current, previous drift.MessageAnalysis, overlap drift.OverlapResult) analyzeMessageResponse {
	return analyzeMessageResponse{
		CurrentIsQuestion:      current.IsQuestion,
		PreviousIsQuestion:     previous.IsQuestion,
		CurrentHasAnaphoricRef: current.HasAnaphoricRef,
		HasTopicReturnSignal:   current.HasTopicPivot,
		HasPreference:          current.HasPreference,
		PreferredEntity:        current.PreferredPhrase,
		RejectedEntity:         current.RejectedPhrase,
		EntityOverlap: entityOverlapSummary{
			HasOverlap:     overlap.Score > 0,
			OverlapScore:   drift.ClampScore(overlap.Score),
			SharedEntities: overlap.Shared,
		},
	}
}

// preprocess times and runs a single Preprocess call, recording the
// analyzer-duration histogram.
func (a *API) preprocess(ctx context.Context, text string) (string, error) {
	start := time.Now()
	out, err := drift.Preprocess(ctx, a.analyzer, text)
	a.metrics.AnalyzerDuration.Record(ctx, time.Since(start).Seconds())
	return out, err
}

// preprocessBatch times and runs PreprocessBatch.
func (a *API) preprocessBatch(ctx context.Context, texts []string) ([]string, error) {
	start := time.Now()
	out, err := drift.PreprocessBatch(ctx, a.analyzer, texts)
	a.metrics.AnalyzerDuration.Record(ctx, time.Since(start).Seconds())
	return out, err
}

// parse times and runs a single analyzer Parse call.
func (a *API) parse(ctx context.Context, text string) (analyzer.Document, error) {
	start := time.Now()
	doc, err := a.analyzer.Parse(ctx, text)
	a.metrics.AnalyzerDuration.Record(ctx, time.Since(start).Seconds())
	return doc, err
}

// embed times and runs a single encoder Embed call.
func (a *API) embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vec, err := a.encoder.Embed(ctx, text)
	a.metrics.EncoderDuration.Record(ctx, time.Since(start).Seconds())
	return vec, err
}

// embedBatch times and runs a single encoder EmbedBatch call.
func (a *API) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vecs, err := a.encoder.EmbedBatch(ctx, texts)
	a.metrics.EncoderDuration.Record(ctx, time.Since(start).Seconds())
	return vecs, err
}

// boolOrDefault returns *ptr if ptr is non-nil, else def.
func boolOrDefault(ptr *bool, def bool) bool {
	if ptr == nil {
		return def
	}
	return *ptr
}

// floatOrDefault returns *ptr if ptr is non-nil, else def.
func floatOrDefault(ptr *float64, def float64) float64 {
	if ptr == nil {
		return def
	}
	return *ptr
}
