package rest

import (
	"context"
	"math"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/lintang-b-s/pairhmm/pkg/kv"
	"github.com/lintang-b-s/pairhmm/pkg/server/rest/service"
)

type AlignmentService interface {
	Models(ctx context.Context) []service.ModelInfo
	Forward(ctx context.Context, model, seqA, seqB string) (float64, error)
	Backward(ctx context.Context, model, seqA, seqB string) (float64, error)
	Viterbi(ctx context.Context, model, seqA, seqB string) (kv.ViterbiRecord, bool, error)
	BatchViterbi(ctx context.Context, model string, pairs [][2]string) ([]service.BatchResult, error)
}

type AlignmentHandler struct {
	svc      AlignmentService
	metrics  *Metrics
	validate *validator.Validate
	trans    ut.Translator
}

func AlignmentRouter(r *chi.Mux, svc AlignmentService, m *Metrics) {
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	validate := validator.New()
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)

	handler := &AlignmentHandler{svc: svc, metrics: m, validate: validate, trans: trans}

	r.Group(func(r chi.Router) {
		r.Route("/api/dp", func(r chi.Router) {
			r.Get("/models", handler.Models)
			r.Post("/forward", handler.Forward)
			r.Post("/backward", handler.Backward)
			r.Post("/viterbi", handler.Viterbi)
			r.Post("/batch-viterbi", handler.BatchViterbi)
		})
	})
}

// ModelResponse model info
//
//	@Description	registered model
type ModelResponse struct {
	Name   string   `json:"name"`
	Heads  int      `json:"heads"`
	States []string `json:"states"`
}

// Models
//
//	@Summary		list the registered models
//	@Tags			dp
//	@Produce		application/json
//	@Router			/dp/models [get]
//	@Success		200	{array}	ModelResponse
func (h *AlignmentHandler) Models(w http.ResponseWriter, r *http.Request) {
	resp := []ModelResponse{}
	for _, info := range h.svc.Models(r.Context()) {
		resp = append(resp, ModelResponse{Name: info.Name, Heads: info.Heads, States: info.States})
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

// AlignRequest model info
//
//	@Description	request body for forward, backward and viterbi. seq_b must be empty for a single head model
type AlignRequest struct {
	Model string `json:"model" validate:"required"`
	SeqA  string `json:"seq_a" validate:"max=5000"`
	SeqB  string `json:"seq_b" validate:"max=5000"`
}

func (s *AlignRequest) Bind(r *http.Request) error {
	s.SeqA = strings.TrimSpace(s.SeqA)
	s.SeqB = strings.TrimSpace(s.SeqB)
	if s.SeqA == "" && s.SeqB == "" {
		return errors.New("invalid request: seq_a and seq_b are both empty")
	}
	return nil
}

// ScoreResponse model info
//
//	@Description	total log probability of the sequences. score is null when the model cannot produce them
type ScoreResponse struct {
	Model      string   `json:"model"`
	Score      *float64 `json:"score"`
	Impossible bool     `json:"impossible"`
}

func finite(x float64) *float64 {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return nil
	}
	return &x
}

func RenderScoreResponse(model string, score float64) *ScoreResponse {
	return &ScoreResponse{
		Model:      model,
		Score:      finite(score),
		Impossible: math.IsInf(score, -1),
	}
}

// Forward
//
//	@Summary		forward algorithm, total log probability over every alignment
//	@Tags			dp
//	@Param			body	body	AlignRequest	true	"model and sequences"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/dp/forward [post]
//	@Success		200	{object}	ScoreResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		404	{object}	ErrResponse
//	@Failure		500	{object}	ErrResponse
func (h *AlignmentHandler) Forward(w http.ResponseWriter, r *http.Request) {
	h.score(w, r, h.svc.Forward)
}

// Backward
//
//	@Summary		backward algorithm, same total as forward computed from the sequence ends
//	@Tags			dp
//	@Param			body	body	AlignRequest	true	"model and sequences"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/dp/backward [post]
//	@Success		200	{object}	ScoreResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		404	{object}	ErrResponse
//	@Failure		500	{object}	ErrResponse
func (h *AlignmentHandler) Backward(w http.ResponseWriter, r *http.Request) {
	h.score(w, r, h.svc.Backward)
}

func (h *AlignmentHandler) score(w http.ResponseWriter, r *http.Request,
	run func(ctx context.Context, model, seqA, seqB string) (float64, error)) {
	data := &AlignRequest{}
	if !h.bind(w, r, data) {
		return
	}

	score, err := run(r.Context(), data.Model, data.SeqA, data.SeqB)
	if err != nil {
		render.Render(w, r, ErrServiceRend(err))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderScoreResponse(data.Model, score))
}

// ViterbiResponse model info
//
//	@Description	most likely alignment. rows holds one gapped row per head, scores the cumulative log probability per step
type ViterbiResponse struct {
	Score      *float64  `json:"score"`
	Impossible bool      `json:"impossible"`
	Rows       []string  `json:"rows"`
	States     []string  `json:"states"`
	Scores     []float64 `json:"scores"`
	Cached     bool      `json:"cached"`
}

func RenderViterbiResponse(rec kv.ViterbiRecord, cached bool) *ViterbiResponse {
	resp := &ViterbiResponse{
		Score:      finite(rec.Score),
		Impossible: math.IsInf(rec.Score, -1),
		Rows:       rec.Rows,
		States:     rec.States,
		Scores:     rec.Scores,
		Cached:     cached,
	}
	if resp.States == nil {
		resp.States = []string{}
	}
	if resp.Scores == nil {
		resp.Scores = []float64{}
	}
	return resp
}

// Viterbi
//
//	@Summary		viterbi algorithm, most likely alignment of the sequences. results are cached per model version
//	@Tags			dp
//	@Param			body	body	AlignRequest	true	"model and sequences"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/dp/viterbi [post]
//	@Success		200	{object}	ViterbiResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		404	{object}	ErrResponse
//	@Failure		500	{object}	ErrResponse
func (h *AlignmentHandler) Viterbi(w http.ResponseWriter, r *http.Request) {
	data := &AlignRequest{}
	if !h.bind(w, r, data) {
		return
	}

	rec, cached, err := h.svc.Viterbi(r.Context(), data.Model, data.SeqA, data.SeqB)
	if err != nil {
		render.Render(w, r, ErrServiceRend(err))
		return
	}
	h.metrics.observeViterbiCache(cached)

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderViterbiResponse(rec, cached))
}

// BatchViterbiRequest model info
//
//	@Description	request body for batch viterbi, every pair is aligned with the same model
type BatchViterbiRequest struct {
	Model string    `json:"model" validate:"required"`
	Pairs []SeqPair `json:"pairs" validate:"required,min=1,max=1000,dive"`
}

// SeqPair model info
//
//	@Description	one pair of sequences
type SeqPair struct {
	SeqA string `json:"seq_a" validate:"max=5000"`
	SeqB string `json:"seq_b" validate:"max=5000"`
}

func (s *BatchViterbiRequest) Bind(r *http.Request) error {
	if len(s.Pairs) == 0 {
		return errors.New("invalid request: no pairs")
	}
	for i := range s.Pairs {
		s.Pairs[i].SeqA = strings.TrimSpace(s.Pairs[i].SeqA)
		s.Pairs[i].SeqB = strings.TrimSpace(s.Pairs[i].SeqB)
	}
	return nil
}

// BatchItemResponse model info
//
//	@Description	result of one pair, error is set instead of the alignment when the pair failed
type BatchItemResponse struct {
	Index   int              `json:"index"`
	Viterbi *ViterbiResponse `json:"viterbi,omitempty"`
	Error   *ErrResponse     `json:"error,omitempty"`
}

// BatchViterbiResponse model info
//
//	@Description	response body for batch viterbi, results are in request order
type BatchViterbiResponse struct {
	Model   string              `json:"model"`
	Results []BatchItemResponse `json:"results"`
}

func RenderBatchViterbiResponse(model string, results []service.BatchResult) *BatchViterbiResponse {
	resp := &BatchViterbiResponse{Model: model, Results: make([]BatchItemResponse, 0, len(results))}
	for _, res := range results {
		item := BatchItemResponse{Index: res.ID}
		if res.Err != nil {
			item.Error = ErrServiceRend(res.Err).(*ErrResponse)
		} else {
			item.Viterbi = RenderViterbiResponse(res.Record, res.Cached)
		}
		resp.Results = append(resp.Results, item)
	}
	return resp
}

// BatchViterbi
//
//	@Summary		viterbi over many pairs, run on a worker pool
//	@Tags			dp
//	@Param			body	body	BatchViterbiRequest	true	"model and pairs"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/dp/batch-viterbi [post]
//	@Success		200	{object}	BatchViterbiResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		404	{object}	ErrResponse
//	@Failure		500	{object}	ErrResponse
func (h *AlignmentHandler) BatchViterbi(w http.ResponseWriter, r *http.Request) {
	data := &BatchViterbiRequest{}
	if !h.bind(w, r, data) {
		return
	}

	pairs := make([][2]string, len(data.Pairs))
	for i, p := range data.Pairs {
		pairs[i] = [2]string{p.SeqA, p.SeqB}
	}
	results, err := h.svc.BatchViterbi(r.Context(), data.Model, pairs)
	if err != nil {
		render.Render(w, r, ErrServiceRend(err))
		return
	}
	for _, res := range results {
		if res.Err == nil {
			h.metrics.observeViterbiCache(res.Cached)
		}
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderBatchViterbiResponse(data.Model, results))
}

// bind. decode and validate the request body, renders the 400 response itself when it fails.
func (h *AlignmentHandler) bind(w http.ResponseWriter, r *http.Request, data render.Binder) bool {
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return false
	}
	if err := h.validate.Struct(data); err != nil {
		vv := translateError(err, h.trans)
		render.Render(w, r, ErrValidation(err, vv))
		return false
	}
	return true
}
