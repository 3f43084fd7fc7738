package capture

import (
	"archive/tar"
	"bytes"
	"fmt"
	"image"
	"image/png"
	"time"

	"golang.org/x/sync/errgroup"
)

// pngSequence encodes each frame to PNG in the background and archives
// the results as frame_0000.png, frame_0001.png, ... in a tar file.
type pngSequence struct {
	opts Options

	group   *errgroup.Group
	frames  []*encodedFrame
	started bool
	stopped bool
	archive []byte
}

type encodedFrame struct {
	data []byte
}

func newPNGSequence(opts Options) *pngSequence {
	return &pngSequence{opts: opts}
}

func (p *pngSequence) Start() error {
	p.group = &errgroup.Group{}
	p.group.SetLimit(p.opts.Workers)
	p.frames = nil
	p.archive = nil
	p.started = true
	p.stopped = false
	return nil
}

func (p *pngSequence) CaptureFrame(img image.Image) error {
	if !p.started || p.stopped {
		return ErrNotStarted
	}
	if err := p.opts.Context.Err(); err != nil {
		return err
	}
	// The renderer reuses its buffer, so encode from a private copy.
	frame := toRGBA(img, true)
	i := len(p.frames)
	slot := &encodedFrame{}
	p.frames = append(p.frames, slot)
	p.group.Go(func() error {
		var buf bytes.Buffer
		if err := png.Encode(&buf, frame); err != nil {
			return fmt.Errorf("encode frame %d: %w", i, err)
		}
		slot.data = buf.Bytes()
		return nil
	})
	return nil
}

func (p *pngSequence) Stop() error {
	if !p.started {
		return ErrNotStarted
	}
	if p.stopped {
		return nil
	}
	p.stopped = true
	if err := p.group.Wait(); err != nil {
		return err
	}
	if len(p.frames) == 0 {
		return ErrNoFrames
	}

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	now := time.Now()
	for i, f := range p.frames {
		data := f.data
		hdr := &tar.Header{
			Name:    fmt.Sprintf("frame_%04d.png", i),
			Mode:    0o644,
			Size:    int64(len(data)),
			ModTime: now,
			Format:  tar.FormatPAX,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("write tar header: %w", err)
		}
		if _, err := tw.Write(data); err != nil {
			return fmt.Errorf("write tar entry: %w", err)
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar: %w", err)
	}
	p.archive = buf.Bytes()
	p.frames = nil
	return nil
}

func (p *pngSequence) Save() ([]byte, error) {
	if !p.stopped {
		return nil, ErrNotStopped
	}
	return p.archive, nil
}
