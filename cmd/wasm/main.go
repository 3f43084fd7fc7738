//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"image"
	"syscall/js"

	"github.com/inamate/orbitcam/internal/capture"
	"github.com/inamate/orbitcam/internal/engine"
	"github.com/inamate/orbitcam/internal/render"
	"github.com/inamate/orbitcam/internal/segment"
	"github.com/inamate/orbitcam/internal/snapshot"
)

var (
	loop    *engine.EventLoop
	ctrl    *engine.Controller
	builder *canvasBuilder
)

// canvasBuilder hands preview frames to the page as draw commands and only
// rasterizes when recording.
type canvasBuilder struct {
	*render.Builder
	current *render.Scene
}

func (b *canvasBuilder) Build(spec engine.SceneSpec) (engine.Scene, error) {
	s, err := b.BuildScene(spec)
	if err != nil {
		return nil, err
	}
	b.current = s
	if spec.Recording {
		return s, nil
	}
	return canvasScene{s}, nil
}

type canvasScene struct{ *render.Scene }

func (s canvasScene) Render(f engine.Frame) (image.Image, error) {
	_, err := s.Compile(f)
	return nil, err
}

func main() {
	builder = &canvasBuilder{Builder: render.NewBuilder(1)}
	loop = engine.NewEventLoop()
	go loop.Run(context.Background())

	ctrl = engine.NewController(loop, builder, capture.Factory(capture.Options{}), engine.Options{
		Hooks: engine.Hooks{
			OnFrame:  onFrame,
			OnStatus: func(st engine.Status) { emit("onStatus", st) },
			OnExport: onExport,
			OnError:  func(err error) { emit("onError", map[string]string{"error": err.Error()}) },
		},
	})

	orbitcam := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	orbitcam.Set("loadConfig", js.FuncOf(loadConfig))
	orbitcam.Set("loadSample", js.FuncOf(loadSample))
	orbitcam.Set("applySettings", js.FuncOf(applySettings))
	orbitcam.Set("addSlot", js.FuncOf(addSlot))
	orbitcam.Set("removeSlot", js.FuncOf(removeSlot))
	orbitcam.Set("setSlot", js.FuncOf(setSlot))
	orbitcam.Set("resizeSlots", js.FuncOf(resizeSlots))
	orbitcam.Set("play", js.FuncOf(command(func() { ctrl.Play() })))
	orbitcam.Set("pause", js.FuncOf(command(func() { ctrl.Pause() })))
	orbitcam.Set("togglePlay", js.FuncOf(command(func() { ctrl.TogglePlay() })))
	orbitcam.Set("stop", js.FuncOf(command(func() { ctrl.Stop() })))
	orbitcam.Set("scrub", js.FuncOf(scrub))
	orbitcam.Set("startRecording", js.FuncOf(startRecording))
	orbitcam.Set("stopRecording", js.FuncOf(command(func() { ctrl.StopRecording() })))

	// --- Queries (frontend ← backend) ---
	orbitcam.Set("getConfig", js.FuncOf(getConfig))
	orbitcam.Set("getStatus", js.FuncOf(getStatus))
	orbitcam.Set("getDrawCommands", js.FuncOf(getDrawCommands))
	orbitcam.Set("evaluate", js.FuncOf(evaluate))

	js.Global().Set("orbitcam", orbitcam)
	js.Global().Set("orbitcamWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// --- Events (backend → frontend) ---

// emit calls orbitcam.<name>(json) when the page has installed a handler.
func emit(name string, v interface{}) {
	fn := js.Global().Get("orbitcam").Get(name)
	if fn.Type() != js.TypeFunction {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fn.Invoke(string(data))
}

func onFrame(f engine.FrameInfo) {
	if f.Image != nil || builder.current == nil {
		return
	}
	cmds, err := render.DrawCommandsToJSON(builder.current.Commands())
	if err != nil {
		return
	}
	fn := js.Global().Get("orbitcam").Get("onFrame")
	if fn.Type() == js.TypeFunction {
		fn.Invoke(cmds, f.Index, f.Total)
	}
}

func onExport(e engine.Export) {
	fn := js.Global().Get("orbitcam").Get("onExport")
	if fn.Type() != js.TypeFunction {
		return
	}
	buf := js.Global().Get("Uint8Array").New(len(e.Data))
	js.CopyBytesToJS(buf, e.Data)
	fn.Invoke(e.Name, e.ContentType, buf)
}

// --- Command Handlers ---

func ok() interface{} { return js.ValueOf(map[string]interface{}{"ok": true}) }

func fail(err error) interface{} {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

// run executes fn on the controller loop.
func run(fn func() error) interface{} {
	var err error
	if doErr := loop.Do(context.Background(), func() { err = fn() }); doErr != nil {
		return fail(doErr)
	}
	if err != nil {
		return fail(err)
	}
	return ok()
}

func command(fn func()) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		return run(func() error { fn(); return nil })
	}
}

func loadConfig(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing configuration"})
	}
	snap, err := snapshot.Decode([]byte(args[0].String()))
	if err != nil {
		return fail(err)
	}
	return run(func() error { return ctrl.Load(snap) })
}

func loadSample(this js.Value, args []js.Value) interface{} {
	return run(func() error { return ctrl.Load(snapshot.Sample()) })
}

func applySettings(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing settings"})
	}
	var p engine.SettingsPatch
	if err := json.Unmarshal([]byte(args[0].String()), &p); err != nil {
		return fail(err)
	}
	return run(func() error { return ctrl.ApplySettings(p) })
}

func target(args []js.Value) segment.Target {
	if len(args) > 0 && args[0].String() == string(segment.Figure) {
		return segment.Figure
	}
	return segment.Camera
}

func addSlot(this js.Value, args []js.Value) interface{} {
	return run(func() error {
		_, err := ctrl.AddSlot(target(args))
		return err
	})
}

func removeSlot(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(map[string]interface{}{"error": "missing slot index"})
	}
	i := args[1].Int()
	return run(func() error { return ctrl.RemoveSlot(target(args), i) })
}

func setSlot(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf(map[string]interface{}{"error": "missing slot row"})
	}
	i := args[1].Int()
	var raw segment.RawSegment
	if err := json.Unmarshal([]byte(args[2].String()), &raw); err != nil {
		return fail(err)
	}
	return run(func() error { return ctrl.SetSlot(target(args), i, raw) })
}

func resizeSlots(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(map[string]interface{}{"error": "missing slot count"})
	}
	n := max(args[1].Int(), 0)
	return run(func() error { return ctrl.ResizeSlots(target(args), n) })
}

func scrub(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	frame := args[0].Int()
	return run(func() error { ctrl.Scrub(frame); return nil })
}

func startRecording(this js.Value, args []js.Value) interface{} {
	return run(ctrl.StartRecording)
}

// --- Query Handlers ---

func getConfig(this js.Value, args []js.Value) interface{} {
	var data []byte
	var err error
	loop.Do(context.Background(), func() { data, err = snapshot.Encode(ctrl.Snapshot()) })
	if err != nil {
		return fail(err)
	}
	return js.ValueOf(string(data))
}

func getStatus(this js.Value, args []js.Value) interface{} {
	var st engine.Status
	loop.Do(context.Background(), func() { st = ctrl.Status() })
	data, _ := json.Marshal(st)
	return js.ValueOf(string(data))
}

func getDrawCommands(this js.Value, args []js.Value) interface{} {
	var cmds []render.DrawCommand
	loop.Do(context.Background(), func() {
		if builder.current != nil {
			cmds = builder.current.Commands()
		}
	})
	out, err := render.DrawCommandsToJSON(cmds)
	if err != nil {
		return fail(err)
	}
	return js.ValueOf(out)
}

func evaluate(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("{}")
	}
	frame := args[0].Int()
	var st engine.AnimationState
	loop.Do(context.Background(), func() { st = ctrl.Evaluate(frame) })
	data, _ := json.Marshal(st)
	return js.ValueOf(string(data))
}
