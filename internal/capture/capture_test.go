package capture

import (
	"archive/tar"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/orbitcam/internal/engine"
	"github.com/inamate/orbitcam/internal/snapshot"
)

func solidFrame(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := New("gif", 30, Options{})
	assert.ErrorIs(t, err, engine.ErrUnsupportedFormat)

	_, err = New(snapshot.FormatWebM, 0, Options{})
	assert.Error(t, err)
}

func TestPNGSequenceArchive(t *testing.T) {
	c, err := New(snapshot.FormatPNGSequence, 30, Options{Workers: 2})
	require.NoError(t, err)
	require.NoError(t, c.Start())

	// one buffer reused for every frame, like the renderer does
	buf := solidFrame(4, 3, color.RGBA{R: 255, A: 255})
	colors := []color.RGBA{{R: 255, A: 255}, {G: 255, A: 255}, {B: 255, A: 255}}
	for _, col := range colors {
		copy(buf.Pix, solidFrame(4, 3, col).Pix)
		require.NoError(t, c.CaptureFrame(buf))
	}

	_, err = c.Save()
	assert.ErrorIs(t, err, ErrNotStopped)

	require.NoError(t, c.Stop())
	data, err := c.Save()
	require.NoError(t, err)

	tr := tar.NewReader(bytes.NewReader(data))
	for i, want := range colors {
		hdr, err := tr.Next()
		require.NoError(t, err)
		assert.Equal(t, []string{"frame_0000.png", "frame_0001.png", "frame_0002.png"}[i], hdr.Name)

		body, err := io.ReadAll(tr)
		require.NoError(t, err)
		img, err := png.Decode(bytes.NewReader(body))
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
		assert.Equal(t, want, color.RGBAModel.Convert(img.At(1, 1)), "frame %d keeps its own pixels", i)
	}
	_, err = tr.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestPNGSequenceEmpty(t *testing.T) {
	c, err := New(snapshot.FormatPNGSequence, 30, Options{})
	require.NoError(t, err)
	require.NoError(t, c.Start())
	assert.ErrorIs(t, c.Stop(), ErrNoFrames)
}

func TestCaptureBeforeStart(t *testing.T) {
	c, err := New(snapshot.FormatPNGSequence, 30, Options{})
	require.NoError(t, err)
	assert.ErrorIs(t, c.CaptureFrame(solidFrame(1, 1, color.RGBA{})), ErrNotStarted)
}

func TestWebMArgs(t *testing.T) {
	w := newWebM(24, Options{}.withDefaults())
	w.out = filepath.Join("tmp", "output.webm")
	args := w.args(640, 480)

	assert.Equal(t, "-y", args[0])
	assert.Contains(t, args, "640x480")
	assert.Contains(t, args, "libvpx-vp9")
	assert.Contains(t, args, "yuva420p")
	assert.Equal(t, w.out, args[len(args)-1])
}

func TestWebMWithoutFrames(t *testing.T) {
	c, err := New(snapshot.FormatWebM, 30, Options{TempDir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, c.Start())
	assert.ErrorIs(t, c.Stop(), ErrNoFrames)
}

func TestWebMMissingEncoder(t *testing.T) {
	c, err := New(snapshot.FormatWebM, 30, Options{
		TempDir:    t.TempDir(),
		FFmpegPath: filepath.Join(t.TempDir(), "no-such-ffmpeg"),
	})
	require.NoError(t, err)
	require.NoError(t, c.Start())
	assert.Error(t, c.CaptureFrame(solidFrame(2, 2, color.RGBA{A: 255})))
}

func TestWebMEncode(t *testing.T) {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg not installed")
	}
	encoders, err := exec.Command(path, "-hide_banner", "-encoders").Output()
	if err != nil || !bytes.Contains(encoders, []byte("libvpx-vp9")) {
		t.Skip("ffmpeg built without libvpx-vp9")
	}
	c, err := New(snapshot.FormatWebM, 10, Options{TempDir: t.TempDir(), FFmpegPath: path})
	require.NoError(t, err)
	require.NoError(t, c.Start())
	for i := 0; i < 5; i++ {
		require.NoError(t, c.CaptureFrame(solidFrame(16, 16, color.RGBA{R: uint8(i * 40), A: 255})))
	}
	require.NoError(t, c.Stop())
	data, err := c.Save()
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
