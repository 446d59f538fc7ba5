package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"lexivox/internal/extract"
	"lexivox/internal/queue"
	"lexivox/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDB struct {
	mock.Mock
}

func (m *MockDB) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockDB) UpdateTask(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockDB) CreateStudyItems(ctx context.Context, items []*model.StudyItem) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

type MockImages struct {
	mock.Mock
}

func (m *MockImages) Download(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockOCR struct {
	mock.Mock
}

func (m *MockOCR) Recognize(ctx context.Context, image []byte, language string) (string, error) {
	args := m.Called(ctx, image, language)
	return args.String(0), args.Error(1)
}

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, text string, mode extract.Mode) *extract.Result {
	args := m.Called(ctx, text, mode)
	return args.Get(0).(*extract.Result)
}

type MockAudio struct {
	mock.Mock
}

func (m *MockAudio) SynthesizeText(ctx context.Context, text string) (*model.AudioAsset, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AudioAsset), args.Error(1)
}

func pendingTask(id string) *model.Task {
	return &model.Task{
		ID:        id,
		Status:    model.TaskStatusQueued,
		Mode:      "words",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func marshalTask(t *testing.T, task queue.DictationTask) []byte {
	data, err := json.Marshal(task)
	require.NoError(t, err)
	return data
}

func TestProcessor_ProcessTask_Success(t *testing.T) {
	db := new(MockDB)
	images := new(MockImages)
	ocr := new(MockOCR)
	extractor := new(MockExtractor)
	audio := new(MockAudio)

	task := pendingTask("task-123")

	db.On("GetTaskByID", mock.Anything, "task-123").Return(task, nil)
	db.On("UpdateTask", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)
	images.On("Download", mock.Anything, "uploads/task-123.jpg").Return([]byte("jpeg-bytes"), nil)
	ocr.On("Recognize", mock.Anything, []byte("jpeg-bytes"), "eng").Return("apple banana", nil)

	result := &extract.Result{
		Mode: extract.ModeWords,
		Tier: extract.TierDirect,
		Words: []extract.EnrichedWord{
			{Word: "apple", Phonetic: "/ˈæp.əl/", Meaning: "蘋果"},
			{Word: "banana", Phonetic: "/bəˈnɑː.nə/", Meaning: "香蕉"},
		},
	}
	extractor.On("Extract", mock.Anything, "apple banana", extract.ModeWords).Return(result)

	audio.On("SynthesizeText", mock.Anything, "apple").
		Return(&model.AudioAsset{ID: "audio-1"}, nil)
	audio.On("SynthesizeText", mock.Anything, "banana").
		Return(&model.AudioAsset{ID: "audio-2"}, nil)

	var savedItems []*model.StudyItem
	db.On("CreateStudyItems", mock.Anything, mock.AnythingOfType("[]*model.StudyItem")).
		Run(func(args mock.Arguments) {
			savedItems = args.Get(1).([]*model.StudyItem)
		}).
		Return(nil)

	p := NewProcessor(db, images, ocr, extractor, audio)

	err := p.ProcessTask(marshalTask(t, queue.DictationTask{
		TaskID:   "task-123",
		ImageKey: "uploads/task-123.jpg",
		Mode:     "words",
		Language: "eng",
	}))

	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusDone, task.Status)
	require.NotNil(t, task.RecognizedText)
	assert.Equal(t, "apple banana", *task.RecognizedText)

	require.Len(t, savedItems, 2)
	assert.Equal(t, "apple", savedItems[0].Text)
	assert.Equal(t, model.StudyItemWord, savedItems[0].Kind)
	assert.Equal(t, 0, savedItems[0].Rank)
	require.NotNil(t, savedItems[0].AudioID)
	assert.Equal(t, "audio-1", *savedItems[0].AudioID)
	assert.Equal(t, 1, savedItems[1].Rank)

	db.AssertExpectations(t)
	ocr.AssertExpectations(t)
}

func TestProcessor_ProcessTask_OCRFailureMarksTask(t *testing.T) {
	db := new(MockDB)
	images := new(MockImages)
	ocr := new(MockOCR)

	task := pendingTask("task-456")

	db.On("GetTaskByID", mock.Anything, "task-456").Return(task, nil)
	db.On("UpdateTask", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)
	images.On("Download", mock.Anything, mock.Anything).Return([]byte("jpeg-bytes"), nil)
	ocr.On("Recognize", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("empty recognition result"))

	p := NewProcessor(db, images, ocr, new(MockExtractor), new(MockAudio))

	err := p.ProcessTask(marshalTask(t, queue.DictationTask{
		TaskID:   "task-456",
		ImageKey: "uploads/task-456.jpg",
		Mode:     "words",
	}))

	require.Error(t, err)
	assert.Equal(t, model.TaskStatusFailed, task.Status)
	assert.Equal(t, 1, task.Attempts)
	require.NotNil(t, task.ErrorText)
	assert.Contains(t, *task.ErrorText, "Recognition failed")
}

func TestProcessor_ProcessTask_AudioFailureKeepsItem(t *testing.T) {
	db := new(MockDB)
	images := new(MockImages)
	ocr := new(MockOCR)
	extractor := new(MockExtractor)
	audio := new(MockAudio)

	task := pendingTask("task-789")

	db.On("GetTaskByID", mock.Anything, "task-789").Return(task, nil)
	db.On("UpdateTask", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)
	images.On("Download", mock.Anything, mock.Anything).Return([]byte("jpeg-bytes"), nil)
	ocr.On("Recognize", mock.Anything, mock.Anything, mock.Anything).Return("apple", nil)

	extractor.On("Extract", mock.Anything, "apple", extract.ModeWords).Return(&extract.Result{
		Mode:  extract.ModeWords,
		Tier:  extract.TierHeuristic,
		Words: []extract.EnrichedWord{{Word: "apple", Meaning: "（暫無翻譯）"}},
	})

	audio.On("SynthesizeText", mock.Anything, mock.Anything).
		Return(nil, errors.New("synthesis unavailable"))

	var savedItems []*model.StudyItem
	db.On("CreateStudyItems", mock.Anything, mock.AnythingOfType("[]*model.StudyItem")).
		Run(func(args mock.Arguments) {
			savedItems = args.Get(1).([]*model.StudyItem)
		}).
		Return(nil)

	p := NewProcessor(db, images, ocr, extractor, audio)

	err := p.ProcessTask(marshalTask(t, queue.DictationTask{
		TaskID:   "task-789",
		ImageKey: "uploads/task-789.jpg",
		Mode:     "words",
	}))

	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusDone, task.Status)
	require.Len(t, savedItems, 1)
	assert.Nil(t, savedItems[0].AudioID)
}

func TestProcessor_ProcessTask_ExhaustedRetriesDropped(t *testing.T) {
	db := new(MockDB)

	errText := "persistent failure"
	task := &model.Task{
		ID:        "task-dead",
		Status:    model.TaskStatusFailed,
		Attempts:  3,
		ErrorText: &errText,
	}
	db.On("GetTaskByID", mock.Anything, "task-dead").Return(task, nil)

	p := NewProcessor(db, new(MockImages), new(MockOCR), new(MockExtractor), new(MockAudio))

	err := p.ProcessTask(marshalTask(t, queue.DictationTask{
		TaskID:   "task-dead",
		ImageKey: "uploads/task-dead.jpg",
		Mode:     "words",
	}))

	// nil acks the message so the task stops circulating
	require.NoError(t, err)
	db.AssertNotCalled(t, "UpdateTask", mock.Anything, mock.Anything)
}

func TestProcessor_ProcessTask_BadPayload(t *testing.T) {
	p := NewProcessor(new(MockDB), new(MockImages), new(MockOCR), new(MockExtractor), new(MockAudio))

	err := p.ProcessTask([]byte("not json"))
	assert.Error(t, err)
}
