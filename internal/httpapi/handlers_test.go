package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/driftos/driftd/pkg/provider/analyzer"
	"github.com/driftos/driftd/pkg/provider/analyzer/heuristic"
	analyzermock "github.com/driftos/driftd/pkg/provider/analyzer/mock"
	"github.com/driftos/driftd/pkg/provider/encoder"
	encodermock "github.com/driftos/driftd/pkg/provider/encoder/mock"
)

// newTestAPI wires an [API] for the given encoder and analyzer (either may be nil)
// and registers it on a fresh mux.
func newTestAPI(enc encoder.Provider, an analyzer.Provider) (*API, *http.ServeMux) {
	a := New(enc, an, Config{DriftThreshold: 0.15, ContinueThreshold: 0.38})
	mux := http.NewServeMux()
	a.Register(mux)
	return a, mux
}

func doRequest(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth_NoEncoderIs503(t *testing.T) {
	_, mux := newTestAPI(nil, nil)
	rec := doRequest(mux, "GET", "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 when the model is not loaded", rec.Code)
	}
}

func TestHandleHealth_WithEncoder(t *testing.T) {
	enc := &encodermock.Provider{DimensionsValue: 384, ModelIDValue: "test-model"}
	_, mux := newTestAPI(enc, nil)
	rec := doRequest(mux, "GET", "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "healthy" || resp.Model != "test-model" || resp.Dimension != 384 {
		t.Errorf("resp = %+v, want healthy/test-model/384", resp)
	}
}

func TestHandleEmbed_NoEncoderIs503(t *testing.T) {
	_, mux := newTestAPI(nil, nil)
	rec := doRequest(mux, "POST", "/embed", `{"text":"hello","preprocess":false}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHandleEmbed_MalformedBodyIs400(t *testing.T) {
	enc := &encodermock.Provider{}
	_, mux := newTestAPI(enc, nil)
	rec := doRequest(mux, "POST", "/embed", `not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleEmbed_SkipsPreprocessWhenDisabled(t *testing.T) {
	enc := &encodermock.Provider{
		DimensionsValue: 3,
		ModelIDValue:    "test-model",
		EmbedFunc: func(text string) []float32 {
			return []float32{float32(len(text)), 0, 0}
		},
	}
	_, mux := newTestAPI(enc, nil)
	rec := doRequest(mux, "POST", "/embed", `{"text":["hi","there"],"preprocess":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	var resp embedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Embeddings) != 2 {
		t.Fatalf("len(Embeddings) = %d, want 2", len(resp.Embeddings))
	}
	if len(resp.PreprocessedTexts) != 0 {
		t.Errorf("PreprocessedTexts = %v, want empty when preprocess disabled", resp.PreprocessedTexts)
	}
	if len(enc.EmbedBatchCalls) != 1 || enc.EmbedBatchCalls[0].Texts[0] != "hi" {
		t.Errorf("encoder received %v, want raw texts unchanged", enc.EmbedBatchCalls)
	}
}

func TestHandleEmbed_NoAnalyzerWithPreprocessIs503(t *testing.T) {
	enc := &encodermock.Provider{}
	_, mux := newTestAPI(enc, nil)
	rec := doRequest(mux, "POST", "/embed", `{"text":"hi"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 (preprocess defaults true, no analyzer)", rec.Code)
	}
}

func TestHandlePreprocess_NoAnalyzerIs503(t *testing.T) {
	_, mux := newTestAPI(nil, nil)
	rec := doRequest(mux, "POST", "/preprocess", `{"text":"hi"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHandlePreprocess_RealAnalyzer(t *testing.T) {
	an := heuristic.New()
	_, mux := newTestAPI(nil, an)

	rec := doRequest(mux, "POST", "/preprocess", `{"text":"Can you please tell me about the kitchen countertops?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	var resp preprocessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Original) != 1 || len(resp.Preprocessed) != 1 {
		t.Fatalf("resp = %+v, want 1 original/preprocessed entry", resp)
	}
	if resp.Preprocessed[0] == "" {
		t.Error("Preprocessed[0] is empty for a substantive sentence")
	}
}

func TestHandleSimilarity_QuestionAsymmetryBoost(t *testing.T) {
	enc := &encodermock.Provider{
		EmbedFunc: func(text string) []float32 {
			if text == "What's your favorite countertop material?" {
				return []float32{1, 0}
			}
			return []float32{0.5, 0.8660254}
		},
	}
	_, mux := newTestAPI(enc, nil)
	body := `{"text1":"What's your favorite countertop material?","text2":"Granite, definitely.","preprocess":false}`
	rec := doRequest(mux, "POST", "/similarity", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	var resp similarityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AdjustedSimilarity <= resp.Similarity {
		t.Errorf("AdjustedSimilarity = %v, want > Similarity (%v) for a question-then-answer pair", resp.AdjustedSimilarity, resp.Similarity)
	}
}

func TestHandleDrift_ActionMapping(t *testing.T) {
	cases := []struct {
		name   string
		vecA   []float32
		vecB   []float32
		action string
	}{
		{"stay", []float32{1, 0}, []float32{1, 0}, "STAY"},
		{"branch_same_cluster", []float32{1, 0}, []float32{0.2, 0.9798}, "BRANCH_SAME_CLUSTER"},
		{"branch_new_cluster", []float32{1, 0}, []float32{0, 1}, "BRANCH_NEW_CLUSTER"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			enc := &encodermock.Provider{
				EmbedFunc: func(text string) []float32 {
					if text == "anchor" {
						return tc.vecA
					}
					return tc.vecB
				},
			}
			_, mux := newTestAPI(enc, nil)
			rec := doRequest(mux, "POST", "/drift", `{"anchor":"anchor","message":"message","preprocess":false}`)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
			}
			var resp driftResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Action != tc.action {
				t.Errorf("Action = %q, want %q (sim=%v)", resp.Action, tc.action, resp.Similarity)
			}
		})
	}
}

func TestHandleDrift_NoEncoderIs503(t *testing.T) {
	_, mux := newTestAPI(nil, nil)
	rec := doRequest(mux, "POST", "/drift", `{"anchor":"a","message":"b"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHandleEntityOverlap_NoAnalyzerIs503(t *testing.T) {
	_, mux := newTestAPI(nil, nil)
	rec := doRequest(mux, "POST", "/entity-overlap", `{"text1":"a","text2":"b"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHandleEntityOverlap_RealAnalyzer(t *testing.T) {
	an := heuristic.New()
	_, mux := newTestAPI(nil, an)

	body := `{"text1":"We're renovating the kitchen with granite countertops.","text2":"Granite countertops are a great choice for kitchens."}`
	rec := doRequest(mux, "POST", "/entity-overlap", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	var resp entityOverlapResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.HasOverlap {
		t.Error("HasOverlap = false, want true for overlapping texts")
	}
}

func TestHandleAnalyzeMessage_PreferenceScenario(t *testing.T) {
	an := heuristic.New()
	_, mux := newTestAPI(nil, an)

	body := `{"current":"I prefer black holes to Donald Trump","previous":"anything"}`
	rec := doRequest(mux, "POST", "/analyze-message", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	var resp analyzeMessageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.HasPreference {
		t.Error("HasPreference = false, want true")
	}
	if resp.PreferredEntity != "black holes" {
		t.Errorf("PreferredEntity = %q, want %q", resp.PreferredEntity, "black holes")
	}
	if resp.RejectedEntity != "Donald Trump" {
		t.Errorf("RejectedEntity = %q, want %q", resp.RejectedEntity, "Donald Trump")
	}
}

func TestHandleAnalyzeDrift_MismatchedEmbeddingLengthIs400(t *testing.T) {
	an := heuristic.New()
	_, mux := newTestAPI(nil, an)

	body := `{"current":"a","previous":"b","current_embedding":[1,2],"branch_centroid":[1,2,3]}`
	rec := doRequest(mux, "POST", "/analyze-drift", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body=%s", rec.Code, rec.Body.String())
	}
}

func TestHandleAnalyzeDrift_PreferenceShortCircuit(t *testing.T) {
	an := heuristic.New()
	_, mux := newTestAPI(nil, an)

	body := `{"current":"I prefer black holes to Donald Trump","previous":"anything","current_embedding":[0.1,0.9],"branch_centroid":[0.9,0.1]}`
	rec := doRequest(mux, "POST", "/analyze-drift", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	var resp analyzeDriftResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.BoostsApplied) != 1 || resp.BoostsApplied[0] != "preference_detected" {
		t.Errorf("BoostsApplied = %v, want [preference_detected]", resp.BoostsApplied)
	}
	if resp.BoostedSimilarity != resp.RawSimilarity {
		t.Errorf("BoostedSimilarity = %v, want == RawSimilarity (%v)", resp.BoostedSimilarity, resp.RawSimilarity)
	}
	if resp.Analysis.PreferredEntity != "black holes" || resp.Analysis.RejectedEntity != "Donald Trump" {
		t.Errorf("Analysis = %+v, want preferred/rejected black holes / Donald Trump", resp.Analysis)
	}
}

func TestHandleAnalyzeMessage_RawTextAnaphoraFallback(t *testing.T) {
	an := heuristic.New()
	_, mux := newTestAPI(nil, an)

	// No demonstrative or unresolved pronoun survives the dependency-based
	// detector here; only the surface regex ("the same") catches it.
	body := `{"current":"The same thing happened during my renovation.","previous":"anything"}`
	rec := doRequest(mux, "POST", "/analyze-message", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	var resp analyzeMessageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.CurrentHasAnaphoricRef {
		t.Error("CurrentHasAnaphoricRef = false, want true via the raw-text fallback")
	}
}

func TestHandleAnalyzeMessage_AnalyzerFailureIs500(t *testing.T) {
	an := analyzermock.New()
	an.ParseErr = errors.New("annotator crashed")
	_, mux := newTestAPI(nil, an)

	rec := doRequest(mux, "POST", "/analyze-message", `{"current":"a","previous":"b"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 when the analyzer fails", rec.Code)
	}
	if len(an.Calls()) == 0 {
		t.Error("analyzer was never called")
	}
}

func TestHandleAnalyzeDrift_NoAnalyzerIs503(t *testing.T) {
	_, mux := newTestAPI(nil, nil)
	body := `{"current":"a","previous":"b","current_embedding":[1],"branch_centroid":[1]}`
	rec := doRequest(mux, "POST", "/analyze-drift", body)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
