package murf

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Generate(t *testing.T) {
	var gotReq GenerateRequest
	var gotAPIKey string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(GenerateResponse{
			AudioFile:         "https://murf.ai/user-upload/temp/abc.mp3",
			AudioLengthInSecs: 1.2,
		})
	}))
	defer server.Close()

	client := NewClient("murf-key").WithBaseURL(server.URL)

	url, err := client.Generate(context.Background(), "hello", "en-US-natalie", -15, -5)
	require.NoError(t, err)

	assert.Equal(t, "https://murf.ai/user-upload/temp/abc.mp3", url)
	assert.Equal(t, "murf-key", gotAPIKey)
	assert.Equal(t, "en-US-natalie", gotReq.VoiceID)
	assert.Equal(t, "hello", gotReq.Text)
	assert.Equal(t, -15, gotReq.Rate)
	assert.Equal(t, -5, gotReq.Pitch)
	assert.Equal(t, "MP3", gotReq.Format)
}

func TestClient_Generate_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errorMessage": "invalid voice_id"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient("murf-key").WithBaseURL(server.URL)

	_, err := client.Generate(context.Background(), "hello", "nonexistent", 0, 0)

	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
	assert.Equal(t, http.StatusBadRequest, synthErr.StatusCode)
	assert.Contains(t, synthErr.Message, "invalid voice_id")
}

func TestClient_Generate_MissingAudioFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient("murf-key").WithBaseURL(server.URL)

	_, err := client.Generate(context.Background(), "hello", "en-US-natalie", 0, 0)

	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
}

func TestClient_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("mp3-bytes"))
	}))
	defer server.Close()

	client := NewClient("murf-key")

	data, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), data)
}

func TestClient_Fetch_RetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("mp3-bytes"))
	}))
	defer server.Close()

	client := NewClient("murf-key")

	data, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), data)
	assert.Equal(t, int32(2), calls.Load())
}
