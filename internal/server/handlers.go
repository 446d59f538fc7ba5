package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"lexivox/internal/extract"
	"lexivox/internal/queue"
	"lexivox/internal/speech"
	"lexivox/internal/storage"
	"lexivox/pkg/cache"
	"lexivox/pkg/fingerprint"
	"lexivox/pkg/logger"
	"lexivox/pkg/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	extractionCacheTTL = 24 * time.Hour
	taskCacheTTL       = 10 * time.Minute
)

// Extractor produces study material from raw text.
type Extractor interface {
	Extract(ctx context.Context, text string, mode extract.Mode) *extract.Result
}

// SpeechService is the audio side of the API.
type SpeechService interface {
	GetOrSynthesize(ctx context.Context, req speech.Request) (*model.AudioAsset, error)
	SynthesizeBatch(ctx context.Context, items []speech.BatchItem, voiceID string, rate, pitch int) []speech.BatchOutcome
	FetchAudio(ctx context.Context, id string) ([]byte, string, error)
	Defaults() speech.Defaults
}

// TaskStore is the slice of storage the API needs.
type TaskStore interface {
	CreateTask(ctx context.Context, task *model.Task) error
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	GetStudyItemsByTaskID(ctx context.Context, taskID string) ([]*model.StudyItem, error)
}

// ImageStore holds uploaded dictation images for the worker.
type ImageStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}

// TaskPublisher hands tasks to the worker queue.
type TaskPublisher interface {
	PublishTask(task *queue.DictationTask) error
}

// ResultCache is the read-through cache in front of extraction and
// task lookups. A nil cache disables caching.
type ResultCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type Handler struct {
	extractor Extractor
	speech    SpeechService
	db        TaskStore
	images    ImageStore
	publisher TaskPublisher
	cache     ResultCache
}

func NewHandler(
	extractor Extractor,
	speechSvc SpeechService,
	db TaskStore,
	images ImageStore,
	publisher TaskPublisher,
	resultCache ResultCache,
) *Handler {
	return &Handler{
		extractor: extractor,
		speech:    speechSvc,
		db:        db,
		images:    images,
		publisher: publisher,
		cache:     resultCache,
	}
}

// Register mounts all API routes on mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/extract", h.handleExtract)
	mux.HandleFunc("POST /api/ocr", h.handleOCRUpload)
	mux.HandleFunc("GET /api/tasks/{id}", h.handleGetTask)
	mux.HandleFunc("POST /api/tts", h.handleTTS)
	mux.HandleFunc("POST /api/tts/batch", h.handleTTSBatch)
	mux.HandleFunc("GET /api/audio/{id}", h.handleGetAudio)
	mux.HandleFunc("GET /health", h.handleHealth)
}

type extractRequest struct {
	Text string `json:"text"`
	Mode string `json:"mode,omitempty"`
}

func (h *Handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	mode, err := extract.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	key := cache.ExtractionCacheKey(fingerprint.Hash(string(mode), req.Text))

	if h.cache != nil {
		var cached extract.Result
		if err := h.cache.Get(ctx, key, &cached); err == nil {
			writeJSON(w, http.StatusOK, &cached)
			return
		} else if !errors.Is(err, cache.ErrNotFound) {
			logger.Warn("Extraction cache read failed", zap.Error(err))
		}
	}

	result := h.extractor.Extract(ctx, req.Text, mode)

	// heuristic-tier results are a degraded fallback; caching them would
	// pin the downgrade for a day even after the LLM recovers
	if h.cache != nil && result.Tier != extract.TierHeuristic {
		if err := h.cache.SetWithTTL(ctx, key, result, extractionCacheTTL); err != nil {
			logger.Warn("Extraction cache write failed", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, result)
}

type ocrUploadRequest struct {
	Image    string `json:"image"`
	Mode     string `json:"mode,omitempty"`
	Language string `json:"language,omitempty"`
}

type ocrUploadResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

func (h *Handler) handleOCRUpload(w http.ResponseWriter, r *http.Request) {
	var req ocrUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Image == "" {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}

	mode, err := extract.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	imageData, err := decodeImage(req.Image)
	if err != nil {
		writeError(w, http.StatusBadRequest, "image is not valid base64")
		return
	}

	ctx := r.Context()
	taskID := uuid.New().String()
	imageKey := fmt.Sprintf("uploads/%s/%s.jpg", time.Now().Format("2006/01/02"), taskID)

	if err := h.images.Upload(ctx, imageKey, imageData, "image/jpeg"); err != nil {
		logger.Error("Failed to store uploaded image", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	task := &model.Task{
		ID:     taskID,
		Status: model.TaskStatusQueued,
		Mode:   string(mode),
		Meta: model.JSONB{
			"image_key": imageKey,
			"language":  req.Language,
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := h.db.CreateTask(ctx, task); err != nil {
		logger.Error("Failed to create task", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	if err := h.publisher.PublishTask(&queue.DictationTask{
		TaskID:    taskID,
		ImageKey:  imageKey,
		Mode:      string(mode),
		Language:  req.Language,
		CreatedAt: time.Now(),
	}); err != nil {
		logger.Error("Failed to publish task", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to queue task")
		return
	}

	logger.Info("Dictation task queued",
		zap.String("task_id", taskID),
		zap.String("mode", string(mode)),
		zap.Int("image_size", len(imageData)))

	writeJSON(w, http.StatusAccepted, ocrUploadResponse{
		TaskID: taskID,
		Status: string(model.TaskStatusQueued),
	})
}

// decodeImage accepts raw base64 or a data URL
func decodeImage(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		if idx := strings.Index(s, ","); idx >= 0 {
			s = s[idx+1:]
		}
	}
	return base64.StdEncoding.DecodeString(s)
}

type taskResponse struct {
	Task  *model.Task        `json:"task"`
	Items []*model.StudyItem `json:"items"`
}

func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx := r.Context()
	key := cache.TaskCacheKey(id)

	if h.cache != nil {
		var cached taskResponse
		if err := h.cache.Get(ctx, key, &cached); err == nil {
			writeJSON(w, http.StatusOK, &cached)
			return
		} else if !errors.Is(err, cache.ErrNotFound) {
			logger.Warn("Task cache read failed", zap.Error(err))
		}
	}

	task, err := h.db.GetTaskByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrTaskNotFound) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		logger.Error("Failed to load task", zap.String("task_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load task")
		return
	}

	items, err := h.db.GetStudyItemsByTaskID(ctx, id)
	if err != nil {
		logger.Error("Failed to load study items", zap.String("task_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load study items")
		return
	}

	resp := taskResponse{Task: task, Items: items}

	// only final states are safe to cache
	if h.cache != nil && task.IsCompleted() {
		if err := h.cache.SetWithTTL(ctx, key, &resp, taskCacheTTL); err != nil {
			logger.Warn("Task cache write failed", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

type ttsRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id,omitempty"`
	Rate    *int   `json:"rate,omitempty"`
	Pitch   *int   `json:"pitch,omitempty"`
}

type ttsResponse struct {
	AudioID string `json:"audio_id"`
	Key     string `json:"key"`
	Format  string `json:"format"`
}

func (h *Handler) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	def := h.speech.Defaults()
	speechReq := speech.Request{
		Text:    req.Text,
		VoiceID: req.VoiceID,
		Rate:    def.Rate,
		Pitch:   def.Pitch,
	}
	if req.Rate != nil {
		speechReq.Rate = *req.Rate
	}
	if req.Pitch != nil {
		speechReq.Pitch = *req.Pitch
	}

	asset, err := h.speech.GetOrSynthesize(r.Context(), speechReq)
	if err != nil {
		logger.Error("Synthesis failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "speech synthesis failed")
		return
	}

	writeJSON(w, http.StatusOK, ttsResponse{
		AudioID: asset.ID,
		Key:     asset.Key,
		Format:  asset.Format,
	})
}

type ttsBatchRequest struct {
	Items   []speech.BatchItem `json:"items"`
	VoiceID string             `json:"voice_id,omitempty"`
	Rate    *int               `json:"rate,omitempty"`
	Pitch   *int               `json:"pitch,omitempty"`
}

type ttsBatchResponse struct {
	Results   []speech.BatchOutcome `json:"results"`
	Total     int                   `json:"total"`
	Succeeded int                   `json:"succeeded"`
}

func (h *Handler) handleTTSBatch(w http.ResponseWriter, r *http.Request) {
	var req ttsBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items are required")
		return
	}

	def := h.speech.Defaults()
	rate, pitch := def.Rate, def.Pitch
	if req.Rate != nil {
		rate = *req.Rate
	}
	if req.Pitch != nil {
		pitch = *req.Pitch
	}

	outcomes := h.speech.SynthesizeBatch(r.Context(), req.Items, req.VoiceID, rate, pitch)

	succeeded := 0
	for _, o := range outcomes {
		if o.Success {
			succeeded++
		}
	}

	writeJSON(w, http.StatusOK, ttsBatchResponse{
		Results:   outcomes,
		Total:     len(outcomes),
		Succeeded: succeeded,
	})
}

func (h *Handler) handleGetAudio(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	data, format, err := h.speech.FetchAudio(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrAssetNotFound) {
			writeError(w, http.StatusNotFound, "audio not found")
			return
		}
		logger.Error("Failed to fetch audio", zap.String("audio_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch audio")
		return
	}

	contentType := "audio/mpeg"
	if format != "mp3" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
