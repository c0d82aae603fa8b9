// Package jobs defines the background tasks processed by the worker binary.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskMarginRecompute refreshes product cost and margin snapshots.
	TaskMarginRecompute = "production:margin_recompute"
	// TaskDocumentIntegrity scans finalized documents for ledger violations.
	TaskDocumentIntegrity = "documents:integrity_scan"
)

// MarginRecomputePayload carries scheduling metadata for margin refreshes.
type MarginRecomputePayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// DocumentIntegrityPayload scopes an integrity scan.
type DocumentIntegrityPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
	// SinceDays limits the scan to documents issued within the window.
	// Zero means scan everything.
	SinceDays int `json:"since_days"`
}

// NewMarginRecomputeTask constructs an Asynq task for margin recomputation.
func NewMarginRecomputeTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(MarginRecomputePayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMarginRecompute, body, asynq.Queue(QueueDefault)), nil
}

// NewDocumentIntegrityTask constructs an Asynq task for an integrity scan.
func NewDocumentIntegrityTask(at time.Time, sinceDays int) (*asynq.Task, error) {
	body, err := json.Marshal(DocumentIntegrityPayload{ScheduledFor: at, SinceDays: sinceDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDocumentIntegrity, body, asynq.Queue(QueueDefault)), nil
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	return &Client{client: asynq.NewClient(redisOpts)}, nil
}

// EnqueueMarginRecompute enqueues a margin recompute task.
func (c *Client) EnqueueMarginRecompute(ctx context.Context) (*asynq.TaskInfo, error) {
	task, err := NewMarginRecomputeTask(time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
}

// EnqueueDocumentIntegrity enqueues an integrity scan task.
func (c *Client) EnqueueDocumentIntegrity(ctx context.Context, sinceDays int) (*asynq.TaskInfo, error) {
	task, err := NewDocumentIntegrityTask(time.Now().UTC(), sinceDays)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}

// Handler exposes HTTP endpoints for job observability and manual triggers.
type Handler struct {
	inspector *asynq.Inspector
	client    *Client
	logger    *slog.Logger
}

// NewHandler constructs an HTTP handler for jobs endpoints.
func NewHandler(inspector *asynq.Inspector, client *Client, logger *slog.Logger) *Handler {
	return &Handler{inspector: inspector, client: client, logger: logger}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/health", h.health)
	r.Post("/margin-recompute", h.triggerMarginRecompute)
	r.Post("/integrity-scan", h.triggerIntegrityScan)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.inspector == nil {
		_, _ = w.Write([]byte(`{"queue":"default","pending":0}`))
		return
	}
	info, err := h.inspector.GetQueueInfo(QueueDefault)
	if err != nil {
		h.logger.Warn("jobs health", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	pending := 0
	queueName := QueueDefault
	if info != nil {
		pending = int(info.Pending)
		queueName = info.Queue
	}
	_, _ = w.Write([]byte(`{"queue":"` + queueName + `","pending":` + strconv.Itoa(pending) + `}`))
}

func (h *Handler) triggerMarginRecompute(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	info, err := h.client.EnqueueMarginRecompute(r.Context())
	if err != nil {
		h.logger.Error("enqueue margin recompute", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte(`{"task_id":"` + info.ID + `"}`))
}

func (h *Handler) triggerIntegrityScan(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	sinceDays, _ := strconv.Atoi(r.URL.Query().Get("since_days"))
	info, err := h.client.EnqueueDocumentIntegrity(r.Context(), sinceDays)
	if err != nil {
		h.logger.Error("enqueue integrity scan", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte(`{"task_id":"` + info.ID + `"}`))
}
