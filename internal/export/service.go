package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/inamate/orbitcam/internal/capture"
	"github.com/inamate/orbitcam/internal/engine"
	"github.com/inamate/orbitcam/internal/snapshot"
)

// Result is a finished export.
type Result struct {
	Name        string
	ContentType string
	Data        []byte
	Frames      int
}

// Service records snapshots to files without a connected client.
type Service struct {
	builder engine.SceneBuilder
	capture capture.Options

	// OnProgress, when set, is called after every recorded frame.
	OnProgress func(frame, total int)
}

// NewService creates an export service rendering with builder.
func NewService(builder engine.SceneBuilder, opts capture.Options) *Service {
	return &Service{builder: builder, capture: opts}
}

// Run records every frame of snap and returns the encoded file. Canceling
// ctx stops the recording, discards what was captured and returns ctx's
// error once the capturer has cleaned up.
func (s *Service) Run(ctx context.Context, snap *snapshot.Snapshot) (*Result, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The loop outlives ctx so the controller can be closed, and its
	// capturer finalized, after a cancellation.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	loop := engine.NewEventLoop()
	go loop.Run(loopCtx)

	// Encoders are killed when ctx ends.
	opts := s.capture
	opts.Context = ctx

	done := make(chan engine.Export, 1)
	failed := make(chan error, 1)
	var ctrl *engine.Controller
	ctrl = engine.NewController(loop, s.builder, capture.Factory(opts), engine.Options{
		Hooks: engine.Hooks{
			OnFrame: func(f engine.FrameInfo) {
				if s.OnProgress != nil && ctrl.State() == engine.Recording {
					s.OnProgress(f.Index+1, f.Total)
				}
			},
			OnExport: func(e engine.Export) {
				select {
				case done <- e:
				default:
				}
			},
			OnError: func(err error) {
				select {
				case failed <- err:
				default:
				}
			},
		},
	})
	defer func() {
		if err := loop.Do(context.Background(), ctrl.Close); err != nil {
			slog.Error("close export controller", "error", err)
		}
	}()

	var startErr error
	if err := loop.Do(ctx, func() {
		if startErr = ctrl.Load(snap); startErr != nil {
			return
		}
		startErr = ctrl.StartRecording()
	}); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	if startErr != nil {
		return nil, fmt.Errorf("start recording: %w", startErr)
	}
	slog.Debug("export started", "format", snap.OutputFormat, "frames", snap.NumFrames)

	select {
	case e := <-done:
		slog.Info("export complete", "name", e.Name, "frames", e.Frames, "size", len(e.Data))
		return &Result{Name: e.Name, ContentType: e.ContentType, Data: e.Data, Frames: e.Frames}, nil
	case err := <-failed:
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// IsClientError reports whether err was caused by the submitted snapshot.
func IsClientError(err error) bool {
	return errors.Is(err, snapshot.ErrInvalidSnapshot) ||
		errors.Is(err, snapshot.ErrInvalidSettings) ||
		errors.Is(err, engine.ErrUnsupportedFormat)
}
