package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockCache struct {
	mock.Mock
	data map[string]interface{}
}

func NewMockCache() *MockCache {
	return &MockCache{
		data: make(map[string]interface{}),
	}
}

func (m *MockCache) Get(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	if args.Error(0) == nil {
		m.data[key] = value
	}
	return args.Error(0)
}

func (m *MockCache) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	if args.Error(0) == nil {
		delete(m.data, key)
	}
	return args.Error(0)
}

func (m *MockCache) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestCache_SetAndGet(t *testing.T) {
	mockCache := NewMockCache()
	ctx := context.Background()

	type TestData struct {
		ID   string
		Name string
	}

	testData := TestData{ID: "123", Name: "test"}
	key := "test:key"

	mockCache.On("Set", ctx, key, testData).Return(nil)
	mockCache.On("Get", ctx, key, mock.AnythingOfType("*cache.TestData")).Return(nil)

	err := mockCache.Set(ctx, key, testData)
	assert.NoError(t, err)

	var retrieved TestData
	err = mockCache.Get(ctx, key, &retrieved)
	assert.NoError(t, err)

	mockCache.AssertExpectations(t)
}

func TestCache_Delete(t *testing.T) {
	mockCache := NewMockCache()
	ctx := context.Background()
	key := "test:key"

	mockCache.data[key] = "value"

	mockCache.On("Delete", ctx, key).Return(nil)

	err := mockCache.Delete(ctx, key)
	assert.NoError(t, err)
	assert.NotContains(t, mockCache.data, key)

	mockCache.AssertExpectations(t)
}

func TestExtractionCacheKey(t *testing.T) {
	key := ExtractionCacheKey("abc123")
	assert.Equal(t, "extract:abc123", key)
}

func TestTaskCacheKey(t *testing.T) {
	key := TaskCacheKey("task-123")
	assert.Equal(t, "task:task-123", key)
}
