package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lexivox/internal/extract"
	"lexivox/internal/queue"
	"lexivox/pkg/logger"
	"lexivox/pkg/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaskStore is the slice of storage the processor needs.
type TaskStore interface {
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	UpdateTask(ctx context.Context, task *model.Task) error
	CreateStudyItems(ctx context.Context, items []*model.StudyItem) error
}

// ImageStore fetches uploaded dictation images.
type ImageStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
}

// Recognizer turns an image into raw text.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, language string) (string, error)
}

// Extractor produces study material from recognized text.
type Extractor interface {
	Extract(ctx context.Context, text string, mode extract.Mode) *extract.Result
}

// AudioProvider resolves text to a cached audio asset using the
// configured default voice and tuning.
type AudioProvider interface {
	SynthesizeText(ctx context.Context, text string) (*model.AudioAsset, error)
}

type Processor struct {
	db        TaskStore
	images    ImageStore
	ocr       Recognizer
	extractor Extractor
	audio     AudioProvider
}

// NewProcessor creates a new worker processor
func NewProcessor(
	db TaskStore,
	images ImageStore,
	ocr Recognizer,
	extractor Extractor,
	audio AudioProvider,
) *Processor {
	return &Processor{
		db:        db,
		images:    images,
		ocr:       ocr,
		extractor: extractor,
		audio:     audio,
	}
}

// ProcessTask processes a dictation image task
func (p *Processor) ProcessTask(taskData []byte) error {
	var dictTask queue.DictationTask
	if err := json.Unmarshal(taskData, &dictTask); err != nil {
		return fmt.Errorf("failed to unmarshal task: %w", err)
	}

	logger.Info("Processing dictation task",
		zap.String("task_id", dictTask.TaskID),
		zap.String("image_key", dictTask.ImageKey))

	ctx := context.Background()

	task, err := p.db.GetTaskByID(ctx, dictTask.TaskID)
	if err != nil {
		return fmt.Errorf("failed to get task from db: %w", err)
	}

	// a nil return acks the message, so exhausted tasks leave the queue
	if task.Status == model.TaskStatusFailed && !task.CanRetry() {
		logger.Warn("Dropping task that exhausted retries",
			zap.String("task_id", task.ID),
			zap.Int("attempts", task.Attempts))
		return nil
	}

	task.SetInProgress()
	if err := p.db.UpdateTask(ctx, task); err != nil {
		logger.Error("Failed to update task status", zap.Error(err))
	}

	imageData, err := p.images.Download(ctx, dictTask.ImageKey)
	if err != nil {
		p.handleTaskError(ctx, task, fmt.Sprintf("Failed to download image: %v", err))
		return err
	}

	logger.Info("Image downloaded",
		zap.String("task_id", task.ID),
		zap.Int("size", len(imageData)))

	text, err := p.ocr.Recognize(ctx, imageData, dictTask.Language)
	if err != nil {
		p.handleTaskError(ctx, task, fmt.Sprintf("Recognition failed: %v", err))
		return err
	}

	task.SetRecognizedText(text)
	if err := p.db.UpdateTask(ctx, task); err != nil {
		logger.Error("Failed to save recognized text", zap.Error(err))
	}

	logger.Info("Recognition completed",
		zap.String("task_id", task.ID),
		zap.Int("text_length", len(text)))

	mode, err := extract.ParseMode(dictTask.Mode)
	if err != nil {
		p.handleTaskError(ctx, task, fmt.Sprintf("Invalid mode: %v", err))
		return err
	}

	result := p.extractor.Extract(ctx, text, mode)

	items := p.buildStudyItems(ctx, task.ID, result)
	if len(items) > 0 {
		if err := p.db.CreateStudyItems(ctx, items); err != nil {
			p.handleTaskError(ctx, task, fmt.Sprintf("Failed to save study items: %v", err))
			return err
		}
	}

	task.SetCompleted()
	if err := p.db.UpdateTask(ctx, task); err != nil {
		logger.Error("Failed to update task status to done", zap.Error(err))
	}

	logger.Info("Task completed successfully",
		zap.String("task_id", task.ID),
		zap.String("tier", string(result.Tier)),
		zap.Int("items", len(items)))

	return nil
}

// buildStudyItems converts an extraction result into persistable rows,
// attaching audio where synthesis succeeds. Audio failures never fail
// the task; the item is simply stored without an asset.
func (p *Processor) buildStudyItems(ctx context.Context, taskID string, result *extract.Result) []*model.StudyItem {
	items := make([]*model.StudyItem, 0, len(result.Words)+len(result.Sentences))

	for i, w := range result.Words {
		item := &model.StudyItem{
			ID:        uuid.New().String(),
			TaskID:    taskID,
			Kind:      model.StudyItemWord,
			Text:      w.Word,
			Phonetic:  w.Phonetic,
			Meaning:   w.Meaning,
			Example:   w.Example,
			Rank:      i,
			CreatedAt: time.Now(),
		}
		item.AudioID = p.synthesizeFor(ctx, w.Word)
		items = append(items, item)
	}

	for i, s := range result.Sentences {
		item := &model.StudyItem{
			ID:        uuid.New().String(),
			TaskID:    taskID,
			Kind:      model.StudyItemSentence,
			Text:      s.Sentence,
			Meaning:   s.Meaning,
			Rank:      i,
			CreatedAt: time.Now(),
		}
		item.AudioID = p.synthesizeFor(ctx, s.Sentence)
		items = append(items, item)
	}

	return items
}

func (p *Processor) synthesizeFor(ctx context.Context, text string) *string {
	if p.audio == nil {
		return nil
	}

	asset, err := p.audio.SynthesizeText(ctx, text)
	if err != nil {
		logger.Warn("Audio synthesis failed, storing item without audio",
			zap.String("text", text),
			zap.Error(err))
		return nil
	}

	return &asset.ID
}

// handleTaskError handles task error
func (p *Processor) handleTaskError(ctx context.Context, task *model.Task, errorMsg string) {
	logger.Error("Task processing error",
		zap.String("task_id", task.ID),
		zap.String("error", errorMsg))

	task.SetError(errorMsg)
	task.IncrementAttempts()

	if err := p.db.UpdateTask(ctx, task); err != nil {
		logger.Error("Failed to update task error", zap.Error(err))
	}
}
