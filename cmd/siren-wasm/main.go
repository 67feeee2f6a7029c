//go:build js && wasm

package main

import (
	"syscall/js"
	"time"
	"unsafe"

	"github.com/cwbudde/algo-siren/display"
	"github.com/cwbudde/algo-siren/siren"
)

const maxFrames = 128

var (
	globalEngine *siren.Engine
	globalPanel  *display.Panel
	controls     siren.StaticControls
	pendingSteps int
	outputBuffer []float32
	ledBuffer    []float32
)

type wasmSource struct{}

func (wasmSource) ReadControls() siren.ControlInput {
	in := siren.ControlInput(controls)
	in.EncoderIncrement = pendingSteps
	pendingSteps = 0
	return in
}

func main() {
	c := make(chan struct{})

	js.Global().Set("wasmInit", js.FuncOf(wasmInit))
	js.Global().Set("wasmSetSwitch", js.FuncOf(wasmSetSwitch))
	js.Global().Set("wasmSetKnob", js.FuncOf(wasmSetKnob))
	js.Global().Set("wasmTurnEncoder", js.FuncOf(wasmTurnEncoder))
	js.Global().Set("wasmProcessBlock", js.FuncOf(wasmProcessBlock))
	js.Global().Set("wasmRenderLeds", js.FuncOf(wasmRenderLeds))
	js.Global().Set("wasmGetMemoryBuffer", js.FuncOf(wasmGetMemoryBuffer))

	println("WASM siren module loaded")
	<-c
}

func wasmInit(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	sampleRate := args[0].Float()

	globalPanel = display.NewPanel(0)
	e, err := siren.NewEngine(siren.NewDefaultParams(sampleRate), siren.WithSource(wasmSource{}))
	if err != nil {
		println("Siren init failed:", err.Error())
		return nil
	}
	e.SetListener(globalPanel)
	globalEngine = e

	outputBuffer = make([]float32, maxFrames*2)
	ledBuffer = make([]float32, display.NumFootswitches+display.RingSegments)

	println("Siren initialized at", int(sampleRate), "Hz")
	return nil
}

func wasmSetSwitch(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	idx := args[0].Int()
	if idx < 0 || idx >= siren.NumSwitches {
		return nil
	}
	controls.Switches[idx] = args[1].Bool()
	return nil
}

func wasmSetKnob(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	idx := args[0].Int()
	if idx < 0 || idx >= siren.NumKnobs {
		return nil
	}
	v := args[1].Float()
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	controls.Knobs[idx] = v
	return nil
}

func wasmTurnEncoder(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	pendingSteps += args[0].Int()
	return nil
}

func wasmProcessBlock(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || globalEngine == nil {
		return 0
	}

	numFrames := args[0].Int()
	if numFrames > maxFrames {
		numFrames = maxFrames
	}
	if numFrames < 1 {
		return 0
	}

	globalEngine.RenderInterleaved(outputBuffer[:numFrames*2])
	globalPanel.Publish(globalEngine.Snapshot())

	ptr := &outputBuffer[0]
	return js.ValueOf(uintptr(unsafe.Pointer(ptr)))
}

// wasmRenderLeds takes the milliseconds since the previous call and returns a
// pointer to 4 footswitch levels followed by 8 ring levels.
func wasmRenderLeds(this js.Value, args []js.Value) interface{} {
	if globalPanel == nil || len(args) < 1 {
		return 0
	}
	dt := args[0].Float()
	f := globalPanel.Render(time.Duration(dt * float64(time.Millisecond)))
	for i, v := range f.Footswitch {
		ledBuffer[i] = float32(v)
	}
	for i, v := range f.Ring {
		ledBuffer[display.NumFootswitches+i] = float32(v)
	}
	ptr := &ledBuffer[0]
	return js.ValueOf(uintptr(unsafe.Pointer(ptr)))
}

func wasmGetMemoryBuffer(this js.Value, args []js.Value) interface{} {
	return js.Global().Get("Go").Get("_inst").Get("exports").Get("mem").Get("buffer")
}
