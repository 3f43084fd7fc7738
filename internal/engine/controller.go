package engine

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/inamate/orbitcam/internal/camera"
	"github.com/inamate/orbitcam/internal/segment"
	"github.com/inamate/orbitcam/internal/snapshot"
)

// PlaybackState is the controller's mode.
type PlaybackState string

const (
	Idle       PlaybackState = "idle"
	Previewing PlaybackState = "previewing"
	Recording  PlaybackState = "recording"
)

const (
	// DefaultPreviewInterval matches a 60 Hz display.
	DefaultPreviewInterval = time.Second / 60

	recordDelay     = time.Millisecond
	previewDebounce = 300 * time.Millisecond
)

var (
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrCaptureFailed     = errors.New("capture failed")
	ErrRecording         = errors.New("recording in progress")
	ErrNoScene           = errors.New("scene not initialized")
)

// Status is the controller state reported to hosts.
type Status struct {
	State   PlaybackState `json:"state"`
	Frame   int           `json:"frame"`
	Total   int           `json:"total"`
	Message string        `json:"message"`
}

// FrameInfo is passed to Hooks.OnFrame after every rendered frame.
type FrameInfo struct {
	Index int
	Total int
	State AnimationState
	Pose  camera.Pose
	Image image.Image
}

// Export is a finished recording.
type Export struct {
	Name        string
	Format      string
	ContentType string
	Data        []byte
	Frames      int
}

// Hooks receive controller events. Nil hooks are skipped. They are called
// on the loop goroutine and must not block.
type Hooks struct {
	OnFrame  func(FrameInfo)
	OnStatus func(Status)
	OnExport func(Export)
	OnError  func(error)
}

// Options configure a Controller.
type Options struct {
	// PreviewInterval is the delay between preview frames.
	PreviewInterval time.Duration
	// PreviewWidth and PreviewHeight size the preview scene. Zero means the
	// configured video size.
	PreviewWidth  int
	PreviewHeight int
	Hooks         Hooks
	Now           func() time.Time
}

// SettingsPatch changes the non-segment settings. Nil fields are left alone.
type SettingsPatch struct {
	FigureScale         *float64     `json:"figureScale,omitempty"`
	CameraFollowMode    *camera.Mode `json:"cameraFollowMode,omitempty"`
	LookAtHeightOffset  *float64     `json:"lookAtHeightOffset,omitempty"`
	InitialDistance     *float64     `json:"initialDistance,omitempty"`
	InitialElevationDeg *float64     `json:"initialElevationDeg,omitempty"`
	InitialAzimuthDeg   *float64     `json:"initialAzimuthDeg,omitempty"`
	Fov                 *float64     `json:"fov,omitempty"`
	NumFrames           *int         `json:"numFrames,omitempty"`
	VideoWidth          *int         `json:"videoWidth,omitempty"`
	VideoHeight         *int         `json:"videoHeight,omitempty"`
	FPS                 *int         `json:"fps,omitempty"`
	OutputFormat        *string      `json:"outputFormat,omitempty"`
}

// Controller drives preview playback and recording. It owns the frame
// counter, the slot lists and the active segment lists. All methods must be
// called from the goroutine that runs its Loop.
type Controller struct {
	loop      Loop
	builder   SceneBuilder
	capturers CapturerFactory
	opts      Options

	settings    *snapshot.Snapshot
	figureSlots *segment.Slots
	cameraSlots *segment.Slots

	// Active lists are replaced whole, never edited in place.
	figure []segment.Segment
	camera []segment.Segment
	memo   Memo

	scene Scene
	frame int
	total int
	state PlaybackState

	capturer Capturer
	format   string

	cancelTick     func()
	cancelDebounce func()
	message        string
}

// NewController creates an idle controller holding the default
// configuration. No scene exists until Load is called.
func NewController(loop Loop, builder SceneBuilder, capturers CapturerFactory, opts Options) *Controller {
	if opts.PreviewInterval <= 0 {
		opts.PreviewInterval = DefaultPreviewInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := snapshot.Default()
	c := &Controller{
		loop:        loop,
		builder:     builder,
		capturers:   capturers,
		opts:        opts,
		settings:    s,
		figureSlots: segment.SlotsFrom(segment.Figure, s.FigureSegments),
		cameraSlots: segment.SlotsFrom(segment.Camera, s.CameraSegments),
		total:       s.NumFrames,
		state:       Idle,
	}
	c.resolve()
	return c
}

// --- Configuration ---

// Load replaces the whole configuration and rebuilds the scene at frame 0.
func (c *Controller) Load(s *snapshot.Snapshot) error {
	if c.state == Recording {
		return ErrRecording
	}
	if err := s.CheckLimits(); err != nil {
		return err
	}
	c.stopPreview()
	c.cancelUpdate()

	c.settings = s.Clone()
	c.figureSlots = segment.SlotsFrom(segment.Figure, c.settings.FigureSegments)
	c.cameraSlots = segment.SlotsFrom(segment.Camera, c.settings.CameraSegments)
	c.resolve()
	c.frame = 0
	c.total = max(c.settings.NumFrames, 0)

	if err := c.rebuild(false); err != nil {
		return err
	}
	c.setStatus("configuration loaded")
	return nil
}

// Snapshot returns the current configuration including every slot row.
func (c *Controller) Snapshot() *snapshot.Snapshot {
	s := c.settings.Clone()
	s.FigureSegments = c.figureSlots.Rows()
	s.CameraSegments = c.cameraSlots.Rows()
	s.NumFigureActionSlots = len(s.FigureSegments)
	s.NumCameraActionSlots = len(s.CameraSegments)
	s.Version = snapshot.Version
	return s
}

// ApplySettings changes non-segment settings and schedules a preview update.
func (c *Controller) ApplySettings(p SettingsPatch) error {
	if c.state == Recording {
		return ErrRecording
	}
	s := c.settings.Clone()
	setIf(&s.FigureScale, p.FigureScale)
	setIf(&s.CameraFollowMode, p.CameraFollowMode)
	setIf(&s.LookAtHeightOffset, p.LookAtHeightOffset)
	setIf(&s.InitialDistance, p.InitialDistance)
	setIf(&s.InitialElevationDeg, p.InitialElevationDeg)
	setIf(&s.InitialAzimuthDeg, p.InitialAzimuthDeg)
	setIf(&s.Fov, p.Fov)
	setIf(&s.NumFrames, p.NumFrames)
	setIf(&s.VideoWidth, p.VideoWidth)
	setIf(&s.VideoHeight, p.VideoHeight)
	setIf(&s.FPS, p.FPS)
	setIf(&s.OutputFormat, p.OutputFormat)
	if err := s.CheckLimits(); err != nil {
		return err
	}
	c.settings = s

	if p.NumFrames != nil {
		c.total = max(s.NumFrames, 0)
	}
	c.RequestPreviewUpdate()
	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// --- Slot edits ---

// Slots returns the slot list for target.
func (c *Controller) Slots(t segment.Target) *segment.Slots {
	if t == segment.Figure {
		return c.figureSlots
	}
	return c.cameraSlots
}

// AddSlot appends a default row to target's list.
func (c *Controller) AddSlot(t segment.Target) (int, error) {
	i, err := c.Slots(t).Add(segment.DefaultRaw())
	if err != nil {
		return 0, err
	}
	c.RequestPreviewUpdate()
	return i, nil
}

// RemoveSlot deletes row i.
func (c *Controller) RemoveSlot(t segment.Target, i int) error {
	if err := c.Slots(t).Remove(i); err != nil {
		return err
	}
	c.RequestPreviewUpdate()
	return nil
}

// SetSlot replaces row i.
func (c *Controller) SetSlot(t segment.Target, i int, raw segment.RawSegment) error {
	if err := c.Slots(t).Set(i, raw); err != nil {
		return err
	}
	c.RequestPreviewUpdate()
	return nil
}

// ResizeSlots sets the number of rows, keeping the existing ones.
func (c *Controller) ResizeSlots(t segment.Target, n int) error {
	if err := c.Slots(t).Resize(n); err != nil {
		return err
	}
	c.RequestPreviewUpdate()
	return nil
}

// --- Preview ---

// Play starts preview playback from the current frame, or from 0 when the
// frame is past the end.
func (c *Controller) Play() {
	if c.state != Idle || c.scene == nil {
		return
	}
	c.resolve()
	c.total = max(c.settings.NumFrames, 0)
	if c.frame >= c.total {
		c.frame = 0
	}
	c.state = Previewing
	c.setStatus("previewing")
	c.previewTick()
}

// Pause stops preview playback at the current frame.
func (c *Controller) Pause() {
	if c.state != Previewing {
		return
	}
	c.cancel()
	c.state = Idle
	c.setStatus("paused")
}

// TogglePlay plays when idle and pauses when previewing.
func (c *Controller) TogglePlay() {
	switch c.state {
	case Idle:
		c.Play()
	case Previewing:
		c.Pause()
	}
}

// Stop pauses the preview and rewinds to frame 0.
func (c *Controller) Stop() {
	if c.state == Recording {
		return
	}
	c.stopPreview()
}

// Scrub pauses the preview and shows frame.
func (c *Controller) Scrub(frame int) {
	if c.state == Recording {
		return
	}
	c.Pause()
	c.frame = max(0, min(frame, c.total-1))
	c.resolve()
	c.renderOrReport(c.frame)
}

// RequestPreviewUpdate rewinds the preview and schedules a rebuild once
// edits have settled. Repeated requests restart the wait.
func (c *Controller) RequestPreviewUpdate() {
	if c.state == Recording {
		return
	}
	c.stopPreview()
	c.cancelUpdate()
	c.cancelDebounce = c.loop.After(previewDebounce, c.applyPreviewUpdate)
}

func (c *Controller) applyPreviewUpdate() {
	c.cancelDebounce = nil
	if c.state == Recording {
		return
	}
	c.resolve()
	c.frame = 0
	if err := c.rebuild(false); err != nil {
		c.report(err)
		return
	}
	c.setStatus("preview updated")
}

func (c *Controller) previewTick() {
	c.cancelTick = nil
	if c.state != Previewing {
		return
	}
	if _, err := c.render(c.frame); err != nil {
		c.report(err)
		c.Pause()
		return
	}
	c.frame++
	if c.frame >= c.total {
		c.frame = 0
	}
	c.cancelTick = c.loop.After(c.opts.PreviewInterval, c.previewTick)
}

func (c *Controller) stopPreview() {
	c.Pause()
	c.frame = 0
	c.renderOrReport(0)
}

// --- Recording ---

// StartRecording stops any preview and records every frame from 0 into the
// configured output format.
func (c *Controller) StartRecording() error {
	if c.state == Recording {
		return ErrRecording
	}
	format := c.settings.OutputFormat
	if format != snapshot.FormatWebM && format != snapshot.FormatPNGSequence {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if c.scene == nil {
		return ErrNoScene
	}
	capt, err := c.capturers(format, c.settings.FPS)
	if err != nil {
		return fmt.Errorf("create capturer: %w", err)
	}

	c.Pause()
	c.cancelUpdate()
	c.resolve()
	c.total = max(c.settings.NumFrames, 0)
	c.frame = 0
	if err := c.rebuild(true); err != nil {
		c.applyPreviewUpdate()
		return err
	}
	if err := capt.Start(); err != nil {
		// Back to a preview scene; the recording one was never used.
		c.applyPreviewUpdate()
		return fmt.Errorf("%w: start: %w", ErrCaptureFailed, err)
	}

	c.capturer = capt
	c.format = format
	c.state = Recording
	c.setStatus("recording")
	c.cancelTick = c.loop.After(recordDelay, c.recordTick)
	return nil
}

// StopRecording ends a recording early and saves what was captured.
func (c *Controller) StopRecording() {
	if c.state != Recording {
		return
	}
	c.finishRecording()
}

func (c *Controller) recordTick() {
	c.cancelTick = nil
	if c.state != Recording {
		return
	}
	if c.frame >= c.total {
		c.finishRecording()
		return
	}
	img, err := c.render(c.frame)
	if err == nil {
		err = c.capturer.CaptureFrame(img)
	}
	if err != nil {
		c.abortRecording(fmt.Errorf("%w: frame %d: %w", ErrCaptureFailed, c.frame, err))
		return
	}
	c.frame++
	c.cancelTick = c.loop.After(recordDelay, c.recordTick)
}

func (c *Controller) finishRecording() {
	c.cancel()
	capt := c.capturer
	frames := c.frame
	c.capturer = nil
	c.state = Idle

	var data []byte
	err := capt.Stop()
	if err == nil {
		data, err = capt.Save()
	}
	if err == nil && len(data) == 0 {
		err = errors.New("empty output")
	}

	if err != nil {
		c.report(fmt.Errorf("%w: %w", ErrCaptureFailed, err))
		c.setStatus("export failed")
	} else {
		exp := Export{
			Name:        ExportName(c.format, c.opts.Now()),
			Format:      c.format,
			ContentType: ContentType(c.format),
			Data:        data,
			Frames:      frames,
		}
		if c.opts.Hooks.OnExport != nil {
			c.opts.Hooks.OnExport(exp)
		}
		c.setStatus("export complete")
	}
	c.RequestPreviewUpdate()
}

func (c *Controller) abortRecording(err error) {
	c.cancel()
	if c.capturer != nil {
		_ = c.capturer.Stop()
	}
	c.capturer = nil
	c.state = Idle
	c.report(err)
	c.setStatus("export failed")
	c.RequestPreviewUpdate()
}

// ExportName returns the download name of a recording finished at now.
func ExportName(format string, now time.Time) string {
	ext := "tar"
	if format == snapshot.FormatWebM {
		ext = "webm"
	}
	return fmt.Sprintf("animation_%d.%s", now.UnixMilli(), ext)
}

// ContentType returns the MIME type of an export format.
func ContentType(format string) string {
	if format == snapshot.FormatWebM {
		return "video/webm"
	}
	return "application/x-tar"
}

// --- Queries ---

// Status returns the current state.
func (c *Controller) Status() Status {
	return Status{State: c.state, Frame: c.frame, Total: c.total, Message: c.message}
}

// State returns the playback mode.
func (c *Controller) State() PlaybackState { return c.state }

// Frame returns the current frame.
func (c *Controller) Frame() int { return c.frame }

// Total returns the number of frames in the animation.
func (c *Controller) Total() int { return c.total }

// Evaluate returns the animation state at frame under the current active
// lists, without rendering.
func (c *Controller) Evaluate(frame int) AnimationState {
	return c.memo.Evaluate(frame, BaseFrom(c.settings), c.figure, c.camera)
}

// Close stops all activity and disposes the scene. An unfinished recording
// is discarded.
func (c *Controller) Close() {
	c.cancel()
	c.cancelUpdate()
	if c.capturer != nil {
		_ = c.capturer.Stop()
		c.capturer = nil
	}
	c.state = Idle
	if c.scene != nil {
		c.scene.Dispose()
		c.scene = nil
	}
}

// --- internals ---

func (c *Controller) resolve() {
	c.figure = c.figureSlots.Active()
	c.camera = c.cameraSlots.Active()
}

func (c *Controller) projector() camera.Projector {
	return camera.Projector{
		Mode:         c.settings.CameraFollowMode,
		HeightOffset: c.settings.LookAtHeightOffset,
		FigureScale:  c.settings.FigureScale,
	}
}

// rebuild disposes the current scene and builds a new one. Recording scenes
// always use the video size.
func (c *Controller) rebuild(recording bool) error {
	if c.scene != nil {
		c.scene.Dispose()
		c.scene = nil
	}
	spec := SceneSpec{
		FigureScale: c.settings.FigureScale,
		Width:       c.settings.VideoWidth,
		Height:      c.settings.VideoHeight,
		Recording:   recording,
	}
	if !recording && c.opts.PreviewWidth > 0 && c.opts.PreviewHeight > 0 {
		spec.Width = c.opts.PreviewWidth
		spec.Height = c.opts.PreviewHeight
	}
	scene, err := c.builder.Build(spec)
	if err != nil {
		return fmt.Errorf("build scene: %w", err)
	}
	c.scene = scene
	c.memo.Reset()
	_, err = c.render(c.frame)
	return err
}

func (c *Controller) render(frame int) (image.Image, error) {
	if c.scene == nil {
		return nil, ErrNoScene
	}
	base := BaseFrom(c.settings)
	st := c.memo.Evaluate(frame, base, c.figure, c.camera)
	pose := c.projector().Project(st.Orbit(), RestPosition(base.FigureScale), st.Figure)

	img, err := c.scene.Render(Frame{Index: frame, State: st, Pose: pose})
	if err != nil {
		return nil, fmt.Errorf("render frame %d: %w", frame, err)
	}
	if c.opts.Hooks.OnFrame != nil {
		c.opts.Hooks.OnFrame(FrameInfo{
			Index: frame,
			Total: c.total,
			State: st,
			Pose:  pose,
			Image: img,
		})
	}
	return img, nil
}

// renderOrReport draws frame when a scene exists.
func (c *Controller) renderOrReport(frame int) {
	if c.scene == nil {
		return
	}
	if _, err := c.render(frame); err != nil {
		c.report(err)
	}
}

func (c *Controller) cancel() {
	if c.cancelTick != nil {
		c.cancelTick()
		c.cancelTick = nil
	}
}

func (c *Controller) cancelUpdate() {
	if c.cancelDebounce != nil {
		c.cancelDebounce()
		c.cancelDebounce = nil
	}
}

func (c *Controller) setStatus(msg string) {
	c.message = msg
	if c.opts.Hooks.OnStatus != nil {
		c.opts.Hooks.OnStatus(c.Status())
	}
}

func (c *Controller) report(err error) {
	if c.opts.Hooks.OnError != nil {
		c.opts.Hooks.OnError(err)
	}
}
