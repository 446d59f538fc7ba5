package speech

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"lexivox/internal/murf"
	"lexivox/internal/storage"
	"lexivox/pkg/fingerprint"
	"lexivox/pkg/logger"
	"lexivox/pkg/model"
	"lexivox/pkg/resilience"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Synthesizer is the speech-synthesis collaborator. Generate returns a
// temporary audio URL; Fetch retrieves the file behind it once.
type Synthesizer interface {
	Generate(ctx context.Context, text, voiceID string, rate, pitch int) (string, error)
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// AssetStore persists audio asset metadata. InsertAudioAsset reports
// inserted=false when the unique key constraint rejected a duplicate.
type AssetStore interface {
	InsertAudioAsset(ctx context.Context, asset *model.AudioAsset) (bool, error)
	GetAudioAssetByKey(ctx context.Context, key string) (*model.AudioAsset, error)
	GetAudioAssetByID(ctx context.Context, id string) (*model.AudioAsset, error)
}

// BlobStore holds the audio bytes behind an asset
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	AudioObjectKey(cacheKey, format string) string
}

// Request fully determines one synthesized audio file
type Request struct {
	Text    string
	VoiceID string
	Rate    int // [-50, 50]
	Pitch   int // [-50, 50]
}

// CacheKey is the content fingerprint of the request: identical
// requests always map to the same key, and any field change produces a
// different one.
func (r Request) CacheKey() string {
	return fingerprint.Hash(r.VoiceID, strconv.Itoa(r.Rate), strconv.Itoa(r.Pitch), r.Text)
}

// BatchItem is one entry of a batch synthesis request
type BatchItem struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
	Text string `json:"text"`
}

// BatchOutcome is the per-item result of batch synthesis. One item's
// failure never aborts its siblings.
type BatchOutcome struct {
	ID      int    `json:"id"`
	Type    string `json:"type"`
	Text    string `json:"text"`
	AudioID string `json:"audio_id,omitempty"`
	Error   string `json:"error,omitempty"`
	Success bool   `json:"success"`
}

// Defaults are the configured voice and tuning. GetOrSynthesize only
// fills an unset VoiceID; callers that want default tuning go through
// SynthesizeText or resolve Defaults themselves, so an explicit zero
// rate or pitch is never mistaken for "unset".
type Defaults struct {
	VoiceID string
	Rate    int
	Pitch   int
}

// Service is the content-addressed speech cache: it deduplicates and
// persists synthesized audio keyed by the request fingerprint, calling
// the synthesis collaborator only on a miss.
type Service struct {
	store   AssetStore
	blobs   BlobStore
	tts     Synthesizer
	voices  *VoicePicker
	limiter *resilience.RateLimiter
	def     Defaults
}

func NewService(store AssetStore, blobs BlobStore, tts Synthesizer, voices *VoicePicker, def Defaults) *Service {
	return &Service{
		store:  store,
		blobs:  blobs,
		tts:    tts,
		voices: voices,
		// batch synthesis paces upstream calls
		limiter: resilience.NewRateLimiter(5, time.Second),
		def:     def,
	}
}

// GetOrSynthesize returns the cached asset for the request, or
// synthesizes, stores and returns a new one. The synthesis URL is
// ephemeral, so bytes are fetched immediately and stored by value.
func (s *Service) GetOrSynthesize(ctx context.Context, req Request) (*model.AudioAsset, error) {
	if req.Text == "" {
		return nil, fmt.Errorf("no text provided")
	}
	if req.VoiceID == "" {
		req.VoiceID = s.pickVoice(req.Text)
	}

	key := req.CacheKey()

	asset, err := s.store.GetAudioAssetByKey(ctx, key)
	if err == nil {
		logger.Debug("Speech cache hit",
			zap.String("key", key),
			zap.String("asset_id", asset.ID))
		return asset, nil
	}
	if !errors.Is(err, storage.ErrAssetNotFound) {
		return nil, fmt.Errorf("failed to look up audio asset: %w", err)
	}

	audioURL, err := s.tts.Generate(ctx, req.Text, req.VoiceID, req.Rate, req.Pitch)
	if err != nil {
		return nil, err
	}

	data, err := s.tts.Fetch(ctx, audioURL)
	if err != nil {
		return nil, err
	}

	objectKey := s.blobs.AudioObjectKey(key, murf.AudioFormat)
	if err := s.blobs.Upload(ctx, objectKey, data, "audio/mpeg"); err != nil {
		return nil, fmt.Errorf("failed to store audio blob: %w", err)
	}

	asset = &model.AudioAsset{
		ID:         uuid.New().String(),
		Key:        key,
		SourceText: req.Text,
		VoiceID:    req.VoiceID,
		Format:     murf.AudioFormat,
		ObjectKey:  objectKey,
		SizeBytes:  int64(len(data)),
		CreatedAt:  time.Now(),
	}

	inserted, err := s.store.InsertAudioAsset(ctx, asset)
	if err != nil {
		return nil, fmt.Errorf("failed to persist audio asset: %w", err)
	}
	if !inserted {
		// a concurrent request won the insert race; its row is the
		// asset of record
		logger.Debug("Audio asset insert lost race, re-reading",
			zap.String("key", key))
		return s.store.GetAudioAssetByKey(ctx, key)
	}

	logger.Info("Audio synthesized and cached",
		zap.String("key", key),
		zap.String("asset_id", asset.ID),
		zap.Int64("size", asset.SizeBytes))

	return asset, nil
}

// SynthesizeText synthesizes text with the configured default voice
// and tuning. Worker pre-synthesis goes through here so its cache keys
// match a default API request for the same text.
func (s *Service) SynthesizeText(ctx context.Context, text string) (*model.AudioAsset, error) {
	return s.GetOrSynthesize(ctx, Request{
		Text:  text,
		Rate:  s.def.Rate,
		Pitch: s.def.Pitch,
	})
}

// SynthesizeBatch processes items sequentially and collects a per-item
// outcome for each.
func (s *Service) SynthesizeBatch(ctx context.Context, items []BatchItem, voiceID string, rate, pitch int) []BatchOutcome {
	outcomes := make([]BatchOutcome, 0, len(items))

	for _, item := range items {
		outcome := BatchOutcome{
			ID:   item.ID,
			Type: item.Type,
			Text: item.Text,
		}

		if err := s.limiter.Wait(ctx); err != nil {
			outcome.Error = err.Error()
			outcomes = append(outcomes, outcome)
			continue
		}

		asset, err := s.GetOrSynthesize(ctx, Request{
			Text:    item.Text,
			VoiceID: voiceID,
			Rate:    rate,
			Pitch:   pitch,
		})
		if err != nil {
			logger.Error("Batch item synthesis failed",
				zap.Int("item_id", item.ID),
				zap.Error(err))
			outcome.Error = err.Error()
			outcomes = append(outcomes, outcome)
			continue
		}

		outcome.AudioID = asset.ID
		outcome.Success = true
		outcomes = append(outcomes, outcome)
	}

	return outcomes
}

// FetchAudio retrieves the bytes and format of a cached asset
func (s *Service) FetchAudio(ctx context.Context, id string) ([]byte, string, error) {
	asset, err := s.store.GetAudioAssetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}

	data, err := s.blobs.Download(ctx, asset.ObjectKey)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch audio blob: %w", err)
	}

	return data, asset.Format, nil
}

// Defaults returns the configured voice and tuning defaults
func (s *Service) Defaults() Defaults {
	return s.def
}

func (s *Service) pickVoice(text string) string {
	if s.voices == nil {
		return s.def.VoiceID
	}
	return s.voices.Pick(text)
}
