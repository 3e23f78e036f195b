package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livelens/lens"
	"github.com/livelens/lens/api"
	lensjson "github.com/livelens/lens/json"
)

func TestLoadOrCreateSession_New(t *testing.T) {
	t.Parallel()

	s, err := loadOrCreateSession("", "vid_123")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "vid_123", s.VideoID)
	assert.Empty(t, s.Messages)
	assert.False(t, s.CreatedAt.IsZero())
}

func TestLoadOrCreateSession_Resume(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	saved := lens.ChatSession{
		ID:      "s1",
		VideoID: "vid_9",
		Messages: []lens.Message{
			lens.UserMessage{Text: "how did the coupon drop perform?", Timestamp: time.Now()},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, lensjson.Save(path, saved))

	s, err := loadOrCreateSession(path, "")
	require.NoError(t, err)
	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, "vid_9", s.VideoID)
	require.Len(t, s.Messages, 1)
}

func TestLoadOrCreateSession_MissingFileStartsFresh(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nope.json")
	s, err := loadOrCreateSession(path, "vid_1")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Empty(t, s.Messages)
}

func TestLoadOrCreateSession_CorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := loadOrCreateSession(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load session")
}

func TestDefaultSessionPath(t *testing.T) {
	t.Parallel()

	path := defaultSessionPath("abc")
	assert.True(t, strings.HasSuffix(path, filepath.Join(".lens", "sessions", "abc.json")), path)
}

func TestListVideos(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/videos", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]lens.Video{
			{ID: "vid_1", Title: "Launch Day", Status: "DONE", GMV: 15230.50, PeakViewers: 8200, CreatedAt: time.Now()},
			{ID: "vid_2", Title: "Spring Sale", Status: "COMPUTING", CreatedAt: time.Now()},
		})
	}))
	defer srv.Close()

	var buf bytes.Buffer
	require.NoError(t, listVideos(context.Background(), api.New(srv.URL), &buf))
	out := buf.String()
	assert.Contains(t, out, "vid_1")
	assert.Contains(t, out, "Launch Day")
	assert.Contains(t, out, "15230.50")
	assert.Contains(t, out, "COMPUTING")
}

func TestUploadVideos(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "day1.mp4"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "day2.mp4"), []byte("x"), 0o644))

	var uploads int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		uploads++
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(lens.Video{ID: r.FormValue("title")})
	}))
	defer srv.Close()

	client := api.New(srv.URL)
	id, err := uploadVideos(context.Background(), client, filepath.Join(dir, "*.mp4"))
	require.NoError(t, err)
	assert.Equal(t, 2, uploads)
	assert.Equal(t, "day1", id)
}
