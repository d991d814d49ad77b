package mux_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bionicotaku/lingo-services-course/internal/infrastructure/mux"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

type fakeEncoder struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	reply    string
}

func (f *fakeEncoder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization")}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &rec.Body)
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	status, reply := f.status, f.reply
	f.mu.Unlock()

	if reply != "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(status)
	if reply != "" {
		_, _ = w.Write([]byte(reply))
	}
}

func (f *fakeEncoder) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newClient(t *testing.T, fake *fakeEncoder) *mux.Client {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client, cleanup, err := mux.NewClient(context.Background(), mux.Config{
		BaseURL:     server.URL,
		TokenID:     "id",
		TokenSecret: "secret",
		Timeout:     2 * time.Second,
	}, log.NewStdLogger(io.Discard))
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return client
}

func TestCreateAsset_SubmitsPublicPolicy(t *testing.T) {
	fake := &fakeEncoder{
		status: http.StatusCreated,
		reply:  `{"data":{"id":"asset-1","playback_ids":[{"id":"signed-1","policy":"signed"},{"id":"play-1","policy":"public"}]}}`,
	}
	client := newClient(t, fake)

	asset, err := client.CreateAsset(context.Background(), "https://cdn.example.com/vid/a.mp4")
	require.NoError(t, err)
	require.Equal(t, "asset-1", asset.AssetID)
	require.Equal(t, "play-1", asset.PlaybackID)

	req := fake.last()
	require.Equal(t, http.MethodPost, req.Method)
	require.Equal(t, "/video/v1/assets", req.Path)
	require.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("id:secret")), req.Auth)
	require.Equal(t, []any{"public"}, req.Body["playback_policy"])
	inputs, ok := req.Body["input"].([]any)
	require.True(t, ok)
	require.Len(t, inputs, 1)
	require.Equal(t, "https://cdn.example.com/vid/a.mp4", inputs[0].(map[string]any)["url"])
}

func TestCreateAsset_NoPlaybackIDs(t *testing.T) {
	fake := &fakeEncoder{status: http.StatusCreated, reply: `{"data":{"id":"asset-2"}}`}
	client := newClient(t, fake)

	asset, err := client.CreateAsset(context.Background(), "https://cdn.example.com/vid/b.mp4")
	require.NoError(t, err)
	require.Equal(t, "asset-2", asset.AssetID)
	require.Equal(t, "", asset.PlaybackID)
}

func TestCreateAsset_ServerError(t *testing.T) {
	fake := &fakeEncoder{status: http.StatusBadRequest, reply: `{"error":{"type":"invalid_parameters"}}`}
	client := newClient(t, fake)

	_, err := client.CreateAsset(context.Background(), "https://cdn.example.com/vid/c.mp4")
	require.Error(t, err)
}

func TestDeleteAsset(t *testing.T) {
	t.Run("no content", func(t *testing.T) {
		fake := &fakeEncoder{status: http.StatusNoContent}
		client := newClient(t, fake)

		require.NoError(t, client.DeleteAsset(context.Background(), "asset-1"))
		req := fake.last()
		require.Equal(t, http.MethodDelete, req.Method)
		require.Equal(t, "/video/v1/assets/asset-1", req.Path)
	})

	t.Run("missing asset is success", func(t *testing.T) {
		fake := &fakeEncoder{status: http.StatusNotFound, reply: `{"error":{"type":"not_found"}}`}
		client := newClient(t, fake)

		require.NoError(t, client.DeleteAsset(context.Background(), "gone"))
	})

	t.Run("empty id skips call", func(t *testing.T) {
		fake := &fakeEncoder{status: http.StatusNoContent}
		client := newClient(t, fake)

		require.NoError(t, client.DeleteAsset(context.Background(), ""))
		require.Empty(t, fake.requests)
	})
}
