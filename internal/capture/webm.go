package capture

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// webm streams raw RGBA frames into an ffmpeg VP9 encoder. The encoder is
// started on the first frame, once the frame size is known.
type webm struct {
	fps  int
	opts Options

	dir    string
	out    string
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	size   image.Point
	frames int

	started bool
	stopped bool
	data    []byte
}

func newWebM(fps int, opts Options) *webm {
	return &webm{fps: fps, opts: opts}
}

func (w *webm) Start() error {
	dir, err := os.MkdirTemp(w.opts.TempDir, "orbitcam-webm-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	w.dir = dir
	w.out = filepath.Join(dir, "output.webm")
	w.started = true
	return nil
}

// args returns the ffmpeg arguments for a width×height input.
func (w *webm) args(width, height int) []string {
	return []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", strconv.Itoa(w.fps),
		"-i", "-",
		"-c:v", "libvpx-vp9",
		"-crf", "30",
		"-b:v", "0",
		"-pix_fmt", "yuva420p",
		w.out,
	}
}

func (w *webm) launch(size image.Point) error {
	cmd := exec.CommandContext(w.opts.Context, w.opts.FFmpegPath, w.args(size.X, size.Y)...)
	cmd.Stderr = &w.stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}
	w.cmd = cmd
	w.stdin = stdin
	w.size = size
	return nil
}

func (w *webm) CaptureFrame(img image.Image) error {
	if !w.started || w.stopped {
		return ErrNotStarted
	}
	size := img.Bounds().Size()
	if w.cmd == nil {
		if err := w.launch(size); err != nil {
			return err
		}
	} else if size != w.size {
		return fmt.Errorf("frame size changed from %v to %v", w.size, size)
	}
	if _, err := w.stdin.Write(toRGBA(img, false).Pix); err != nil {
		return fmt.Errorf("write frame %d: %w: %s", w.frames, err, w.stderr.String())
	}
	w.frames++
	return nil
}

func (w *webm) Stop() error {
	if !w.started {
		return ErrNotStarted
	}
	if w.stopped {
		return nil
	}
	w.stopped = true
	defer os.RemoveAll(w.dir)

	if w.cmd == nil {
		return ErrNoFrames
	}
	w.stdin.Close()
	if err := w.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, w.stderr.String())
	}
	data, err := os.ReadFile(w.out)
	if err != nil {
		return fmt.Errorf("read output: %w", err)
	}
	w.data = data
	return nil
}

func (w *webm) Save() ([]byte, error) {
	if !w.stopped {
		return nil, ErrNotStopped
	}
	return w.data, nil
}
