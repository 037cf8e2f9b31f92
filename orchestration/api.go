package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/animus-labs/animus-scenarios/internal/domain"
	"github.com/animus-labs/animus-scenarios/internal/events"
	"github.com/animus-labs/animus-scenarios/internal/platform/httpserver"
	"github.com/animus-labs/animus-scenarios/internal/ranking"
	"github.com/animus-labs/animus-scenarios/internal/runner"
)

const maxBodyBytes = 1 << 20

type ranker interface {
	Rank(ctx context.Context, req ranking.Request) (ranking.Response, error)
	DefaultMaxScenarios() int
}

type completer interface {
	Complete(ctx context.Context, prompt string, options map[string]any) (domain.Metadata, error)
	ResetBudget(value int)
}

type runService interface {
	Schedule(ctx context.Context, scenarioID string, parameters map[string]any) (domain.RunRecord, error)
	Get(ctx context.Context, runID string) (domain.RunRecord, error)
	Subscribe(ctx context.Context, runID string) (*events.Subscription, error)
	Cancel(ctx context.Context, runID string) (domain.RunRecord, error)
}

type suggestionRecorder interface {
	Suggestion()
}

type orchestrationAPI struct {
	logger    *slog.Logger
	ranker    ranker
	llm       completer
	runs      runService
	metrics   suggestionRecorder
	heartbeat time.Duration
}

func newOrchestrationAPI(logger *slog.Logger, rk ranker, llm completer, runs runService, metrics suggestionRecorder) *orchestrationAPI {
	if logger == nil {
		logger = slog.Default()
	}
	return &orchestrationAPI{
		logger:    logger,
		ranker:    rk,
		llm:       llm,
		runs:      runs,
		metrics:   metrics,
		heartbeat: 15 * time.Second,
	}
}

func (api *orchestrationAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /suggest", api.handleSuggest)
	mux.HandleFunc("POST /execute", api.handleExecute)
	mux.HandleFunc("GET /runs/{run_id}", api.handleGetRun)
	mux.HandleFunc("POST /runs/{run_id}/cancel", api.handleCancelRun)
	mux.HandleFunc("GET /runs/{run_id}/stream", api.handleStreamRun)
}

func (api *orchestrationAPI) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req ranking.Request
	if err := decodeJSON(r, &req); err != nil {
		httpserver.WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	resp, err := api.ranker.Rank(r.Context(), req)
	if err != nil {
		if errors.Is(err, ranking.ErrInvalidRequest) {
			httpserver.WriteError(w, r, http.StatusUnprocessableEntity, "invalid_request", err.Error())
			return
		}
		api.logger.Error("rank failed", "error", err)
		httpserver.WriteError(w, r, http.StatusInternalServerError, "internal_error", "")
		return
	}
	if resp.Metadata == nil {
		resp.Metadata = domain.Metadata{}
	}
	resp.Metadata["max_scenarios"] = api.ranker.DefaultMaxScenarios()

	if api.llm != nil {
		resp.Metadata["llm"] = api.annotate(r.Context(), req.Prompt, len(resp.Options))
		api.llm.ResetBudget(0)
	}
	if api.metrics != nil {
		api.metrics.Suggestion()
	}
	httpserver.WriteJSON(w, http.StatusOK, resp)
}

func (api *orchestrationAPI) annotate(ctx context.Context, prompt string, options int) domain.Metadata {
	out, err := api.llm.Complete(ctx, prompt, map[string]any{"options": options})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			api.logger.Warn("suggestion annotation failed", "error", err)
		}
		return domain.Metadata{"error": err.Error()}
	}
	return out
}

type executeRequest struct {
	ScenarioID string         `json:"scenario_id"`
	Parameters map[string]any `json:"parameters"`
}

func (api *orchestrationAPI) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := decodeJSON(r, &req); err != nil {
		httpserver.WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	record, err := api.runs.Schedule(r.Context(), req.ScenarioID, req.Parameters)
	if err != nil {
		api.writeRunError(w, r, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusAccepted, record)
}

func (api *orchestrationAPI) handleGetRun(w http.ResponseWriter, r *http.Request) {
	record, err := api.runs.Get(r.Context(), r.PathValue("run_id"))
	if err != nil {
		api.writeRunError(w, r, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, record)
}

func (api *orchestrationAPI) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	record, err := api.runs.Cancel(r.Context(), r.PathValue("run_id"))
	if err != nil {
		api.writeRunError(w, r, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusAccepted, record)
}

func (api *orchestrationAPI) handleStreamRun(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("run_id")
	sub, err := api.runs.Subscribe(r.Context(), runID)
	if err != nil {
		api.writeRunError(w, r, err)
		return
	}
	defer sub.Close()

	stream, err := httpserver.StartSSE(w)
	if err != nil {
		httpserver.WriteError(w, r, http.StatusInternalServerError, "streaming_unsupported", "")
		return
	}

	seq := 0
	for {
		waitCtx, cancel := context.WithTimeout(r.Context(), api.heartbeat)
		record, err := sub.Next(waitCtx)
		cancel()
		switch {
		case err == nil:
			seq++
			if err := stream.Event("status", strconv.Itoa(seq), record); err != nil {
				return
			}
		case errors.Is(err, io.EOF), errors.Is(err, events.ErrClosed):
			return
		case r.Context().Err() != nil:
			return
		case errors.Is(err, context.DeadlineExceeded):
			if err := stream.Ping(); err != nil {
				return
			}
		default:
			api.logger.Warn("run stream ended", "run_id", runID, "error", err)
			return
		}
	}
}

func (api *orchestrationAPI) writeRunError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, runner.ErrRunNotFound):
		httpserver.WriteError(w, r, http.StatusNotFound, "not_found", "Run not found")
	case errors.Is(err, runner.ErrRunFinished):
		httpserver.WriteError(w, r, http.StatusConflict, "run_finished", err.Error())
	case errors.Is(err, runner.ErrInvalidRequest):
		httpserver.WriteError(w, r, http.StatusUnprocessableEntity, "invalid_request", err.Error())
	case errors.Is(err, runner.ErrShuttingDown):
		httpserver.WriteError(w, r, http.StatusServiceUnavailable, "shutting_down", "")
	default:
		api.logger.Error("run request failed", "path", r.URL.Path, "error", err)
		httpserver.WriteError(w, r, http.StatusInternalServerError, "internal_error", "")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("multiple JSON values")
	}
	return nil
}
