package httpapi

import (
	"encoding/json"
	"errors"
)

// StringOrSlice decodes a JSON value that may be either a single string or
// an array of strings into a normalized []string. This is the edge-of-system
// tagged union the dynamic-typed `text` payload needs; nothing downstream of
// decode ever dispatches on its original shape again.
type StringOrSlice []string

// UnmarshalJSON implements [json.Unmarshaler].
func (s *StringOrSlice) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = []string{single}
		return nil
	}

	var multi []string
	if err := json.Unmarshal(data, &multi); err == nil {
		*s = multi
		return nil
	}

	return errors.New("text must be a string or an array of strings")
}

// embedRequest is the request body for POST /embed.
type embedRequest struct {
	Text       StringOrSlice `json:"text"`
	Preprocess *bool         `json:"preprocess"`
}

// embedResponse is the response body for POST /embed.
type embedResponse struct {
	Embeddings        [][]float32 `json:"embeddings"`
	Dimension         int         `json:"dimension"`
	Model             string      `json:"model"`
	PreprocessedTexts []string    `json:"preprocessed_texts,omitempty"`
}

// preprocessRequest is the request body for POST /preprocess.
type preprocessRequest struct {
	Text StringOrSlice `json:"text"`
}

// preprocessResponse is the response body for POST /preprocess.
type preprocessResponse struct {
	Original     []string `json:"original"`
	Preprocessed []string `json:"preprocessed"`
}

// similarityRequest is the request body for POST /similarity.
type similarityRequest struct {
	Text1      string `json:"text1"`
	Text2      string `json:"text2"`
	Preprocess *bool  `json:"preprocess"`
}

// similarityResponse is the response body for POST /similarity.
type similarityResponse struct {
	Similarity         float64 `json:"similarity"`
	AdjustedSimilarity float64 `json:"adjusted_similarity"`
	PreprocessedText1  string  `json:"preprocessed_text1,omitempty"`
	PreprocessedText2  string  `json:"preprocessed_text2,omitempty"`
}

// driftRequest is the request body for POST /drift.
type driftRequest struct {
	Anchor          string   `json:"anchor"`
	Message         string   `json:"message"`
	Preprocess      *bool    `json:"preprocess"`
	StayThreshold   *float64 `json:"stay_threshold"`
	BranchThreshold *float64 `json:"branch_threshold"`
}

// driftResponse is the response body for POST /drift.
type driftResponse struct {
	Similarity          float64 `json:"similarity"`
	Action              string  `json:"action"`
	PreprocessedAnchor  string  `json:"preprocessed_anchor,omitempty"`
	PreprocessedMessage string  `json:"preprocessed_message,omitempty"`
}

// entityOverlapRequest is the request body for POST /entity-overlap.
type entityOverlapRequest struct {
	Text1 string `json:"text1"`
	Text2 string `json:"text2"`
}

// entityOverlapResponse is the response body for POST /entity-overlap.
type entityOverlapResponse struct {
	HasOverlap     bool     `json:"has_overlap"`
	OverlapScore   float64  `json:"overlap_score"`
	SharedEntities []string `json:"shared_entities"`
	Text1Entities  []string `json:"text1_entities"`
	Text2Entities  []string `json:"text2_entities"`
}

// analyzeMessageRequest is the request body for POST /analyze-message.
type analyzeMessageRequest struct {
	Current  string `json:"current"`
	Previous string `json:"previous"`
}

// entityOverlapSummary is the entity_overlap field nested in
// [analyzeMessageResponse].
type entityOverlapSummary struct {
	HasOverlap     bool     `json:"has_overlap"`
	OverlapScore   float64  `json:"overlap_score"`
	SharedEntities []string `json:"shared_entities"`
}

// analyzeMessageResponse is the response body for POST /analyze-message and
// the nested `analysis` field of POST /analyze-drift.
type analyzeMessageResponse struct {
	CurrentIsQuestion      bool                 `json:"current_is_question"`
	PreviousIsQuestion     bool                 `json:"previous_is_question"`
	CurrentHasAnaphoricRef bool                 `json:"current_has_anaphoric_ref"`
	HasTopicReturnSignal   bool                 `json:"has_topic_return_signal"`
	HasPreference          bool                 `json:"has_preference"`
	PreferredEntity        string               `json:"preferred_entity,omitempty"`
	RejectedEntity         string               `json:"rejected_entity,omitempty"`
	EntityOverlap          entityOverlapSummary `json:"entity_overlap"`
}

// analyzeDriftRequest is the request body for POST /analyze-drift.
type analyzeDriftRequest struct {
	Current          string    `json:"current"`
	Previous         string    `json:"previous"`
	CurrentEmbedding []float32 `json:"current_embedding"`
	BranchCentroid   []float32 `json:"branch_centroid"`
}

// analyzeDriftResponse is the response body for POST /analyze-drift.
type analyzeDriftResponse struct {
	RawSimilarity     float64                `json:"raw_similarity"`
	BoostedSimilarity float64                `json:"boosted_similarity"`
	BoostMultiplier   float64                `json:"boost_multiplier"`
	BoostsApplied     []string               `json:"boosts_applied"`
	Analysis          analyzeMessageResponse `json:"analysis"`
}

// healthResponse is the response body for GET /health.
type healthResponse struct {
	Status    string `json:"status"`
	Model     string `json:"model"`
	Device    string `json:"device"`
	Dimension int    `json:"dimension"`
}
