package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/zballl/vibecheck-app/internal/core"
	apperrors "github.com/zballl/vibecheck-app/internal/errors"
	"github.com/zballl/vibecheck-app/internal/mood"
)

// CredentialHeader lets a caller supply their own generative-text API key.
const CredentialHeader = "X-Gemini-Api-Key"

// maxBodyBytes bounds recommendation request bodies.
const maxBodyBytes = 16 << 10

// Recommender is the pipeline surface the HTTP handlers need.
type Recommender interface {
	GetRecommendations(ctx context.Context, mood, credential string) *core.Outcome
	Endpoints(ctx context.Context, credential string) ([]core.ModelEndpoint, error)
}

// RecommendRequest is the body of POST /v1/recommendations.
type RecommendRequest struct {
	Mood string `json:"mood"`
}

// RecommendResponse is returned for success and invalid-mood outcomes.
type RecommendResponse struct {
	Status     core.Status    `json:"status"`
	Mood       string         `json:"mood"`
	Tracks     []core.Track   `json:"tracks,omitempty"`
	Message    string         `json:"message,omitempty"`
	Model      string         `json:"model,omitempty"`
	Attempts   []core.Attempt `json:"attempts,omitempty"`
	DurationMs int64          `json:"duration_ms"`
}

// ModelsResponse lists resolved endpoints in the order they would be tried.
type ModelsResponse struct {
	Endpoints []core.ModelEndpoint `json:"endpoints"`
}

// RecommendHandler serves the /v1 pipeline routes.
type RecommendHandler struct {
	service Recommender

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRecommendHandler wraps a pipeline service.
func NewRecommendHandler(service Recommender) *RecommendHandler {
	return &RecommendHandler{
		service: service,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Recommend handles POST /v1/recommendations.
func (h *RecommendHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "invalid request body"))
		return
	}
	// A blank mood still goes to the model, which classifies it.
	h.run(w, r, req.Mood)
}

// Surprise handles POST /v1/recommendations/surprise.
func (h *RecommendHandler) Surprise(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	m := mood.Surprise(h.rng)
	h.mu.Unlock()
	h.run(w, r, m)
}

// Quiz handles POST /v1/recommendations/quiz.
func (h *RecommendHandler) Quiz(w http.ResponseWriter, r *http.Request) {
	var answers mood.QuizAnswers
	if err := decodeBody(r, &answers); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "invalid request body"))
		return
	}
	m, err := mood.FromQuiz(answers)
	if err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, err.Error()))
		return
	}
	h.run(w, r, m)
}

// Models handles GET /v1/models.
func (h *RecommendHandler) Models(w http.ResponseWriter, r *http.Request) {
	endpoints, err := h.service.Endpoints(r.Context(), r.Header.Get(CredentialHeader))
	if err != nil {
		respondWithError(w, r, apperrors.FromOutcome(r.Context(), &core.Outcome{Status: core.StatusFailed, Err: err}))
		return
	}
	writeJSON(w, http.StatusOK, ModelsResponse{Endpoints: endpoints})
}

func (h *RecommendHandler) run(w http.ResponseWriter, r *http.Request, m string) {
	out := h.service.GetRecommendations(r.Context(), m, r.Header.Get(CredentialHeader))
	if out == nil {
		respondWithError(w, r, apperrors.NewInternalError("pipeline returned no outcome"))
		return
	}

	switch out.Status {
	case core.StatusSuccess:
		resp := RecommendResponse{
			Status:     out.Status,
			Mood:       out.Mood,
			Model:      out.Model,
			Attempts:   out.Attempts,
			DurationMs: out.Duration.Milliseconds(),
		}
		if out.Playlist != nil {
			resp.Tracks = out.Playlist.Tracks
		}
		writeJSON(w, http.StatusOK, resp)
	case core.StatusInvalidMood:
		writeJSON(w, http.StatusOK, RecommendResponse{
			Status:     out.Status,
			Mood:       out.Mood,
			Message:    "that doesn't look like a mood; try describing how you feel",
			DurationMs: out.Duration.Milliseconds(),
		})
	default:
		respondWithError(w, r, apperrors.FromOutcome(r.Context(), out))
	}
}

func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is empty")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
