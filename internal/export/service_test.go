package export

import (
	"archive/tar"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/orbitcam/internal/artifact"
	"github.com/inamate/orbitcam/internal/capture"
	"github.com/inamate/orbitcam/internal/render"
	"github.com/inamate/orbitcam/internal/snapshot"
)

func shortSnapshot() *snapshot.Snapshot {
	s := snapshot.Sample()
	s.NumFrames = 4
	s.VideoWidth = 64
	s.VideoHeight = 48
	s.OutputFormat = snapshot.FormatPNGSequence
	return s
}

func tarNames(t *testing.T, data []byte) []string {
	t.Helper()
	var names []string
	tr := tar.NewReader(bytes.NewReader(data))
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
	}
	return names
}

func TestRunPNGSequence(t *testing.T) {
	svc := NewService(render.NewBuilder(1), capture.Options{TempDir: t.TempDir()})
	var progress []int
	svc.OnProgress = func(frame, total int) {
		assert.Equal(t, 4, total)
		progress = append(progress, frame)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res, err := svc.Run(ctx, shortSnapshot())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.Name, "animation_"))
	assert.True(t, strings.HasSuffix(res.Name, ".tar"))
	assert.Equal(t, "application/x-tar", res.ContentType)
	assert.Equal(t, 4, res.Frames)
	assert.Equal(t, []string{"frame_0000.png", "frame_0001.png", "frame_0002.png", "frame_0003.png"}, tarNames(t, res.Data))
	assert.Equal(t, []int{1, 2, 3, 4}, progress)
}

func TestRunRejectsInvalidSnapshot(t *testing.T) {
	svc := NewService(render.NewBuilder(1), capture.Options{})
	s := shortSnapshot()
	s.FPS = 0

	_, err := svc.Run(context.Background(), s)
	require.Error(t, err)
	assert.True(t, IsClientError(err))
}

func TestRunCanceled(t *testing.T) {
	svc := NewService(render.NewBuilder(1), capture.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Run(ctx, shortSnapshot())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunCanceledMidRecordingCleansUp(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a shell script encoder")
	}
	encoder := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(encoder, []byte("#!/bin/sh\ncat > /dev/null\n"), 0o755))
	tmp := t.TempDir()

	svc := NewService(render.NewBuilder(1), capture.Options{TempDir: tmp, FFmpegPath: encoder})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.OnProgress = func(frame, total int) {
		if frame == 5 {
			cancel()
		}
	}

	s := shortSnapshot()
	s.NumFrames = 50
	s.OutputFormat = snapshot.FormatWebM
	_, err := svc.Run(ctx, s)
	assert.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "encoder temp dir is removed")
}

func TestHandlerStreamsFile(t *testing.T) {
	h := NewHandler(NewService(render.NewBuilder(1), capture.Options{}), nil)
	body, err := snapshot.Encode(shortSnapshot())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Export(rec, httptest.NewRequest(http.MethodPost, "/export", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-tar", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="animation_`)
	assert.Len(t, tarNames(t, rec.Body.Bytes()), 4)
}

func TestHandlerStoresArtifact(t *testing.T) {
	store, err := artifact.NewStore(t.TempDir())
	require.NoError(t, err)
	h := NewHandler(NewService(render.NewBuilder(1), capture.Options{}), store)
	body, err := snapshot.Encode(shortSnapshot())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Export(rec, httptest.NewRequest(http.MethodPost, "/export?store=true", bytes.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"url":"/artifacts/exp_`)
}

func TestHandlerBadRequests(t *testing.T) {
	h := NewHandler(NewService(render.NewBuilder(1), capture.Options{}), nil)

	rec := httptest.NewRecorder()
	h.Export(rec, httptest.NewRequest(http.MethodPost, "/export", strings.NewReader(`[1,2`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Export(rec, httptest.NewRequest(http.MethodPost, "/export", strings.NewReader(`{"outputFormat":"gif"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "outputFormat")
}

func TestHandlerRejectsOversizedVideo(t *testing.T) {
	h := NewHandler(NewService(render.NewBuilder(1), capture.Options{}), nil)
	body := `{"numFrames":2,"outputFormat":"png_sequence","videoWidth":1073741824,"videoHeight":1073741824}`

	rec := httptest.NewRecorder()
	h.Export(rec, httptest.NewRequest(http.MethodPost, "/export", strings.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "video size must be at most")

	rec = httptest.NewRecorder()
	h.Export(rec, httptest.NewRequest(http.MethodPost, "/export", strings.NewReader(`{"numFrames":1000000000}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
