package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// LoadLua runs a Lua control script and returns the resulting Script. The script
// builds the timeline by calling:
//
//	sample_rate(hz)  block_size(n)  duration(seconds)  volume(v)
//	switch(at, name, on)  knob(at, name, value)  encoder(at, steps)
//
// Events at time 0 take effect in the first block.
func LoadLua(path string) (*Script, error) {
	return runLua(func(L *lua.LState) error { return L.DoFile(path) })
}

// ParseLua runs Lua source from memory.
func ParseLua(src string) (*Script, error) {
	return runLua(func(L *lua.LState) error { return L.DoString(src) })
}

func runLua(run func(*lua.LState) error) (*Script, error) {
	L := lua.NewState()
	defer L.Close()

	var f File
	L.SetGlobal("sample_rate", L.NewFunction(func(L *lua.LState) int {
		v := float64(L.CheckNumber(1))
		f.SampleRate = &v
		return 0
	}))
	L.SetGlobal("block_size", L.NewFunction(func(L *lua.LState) int {
		v := L.CheckInt(1)
		f.BlockSize = &v
		return 0
	}))
	L.SetGlobal("duration", L.NewFunction(func(L *lua.LState) int {
		v := float64(L.CheckNumber(1))
		f.Duration = &v
		return 0
	}))
	L.SetGlobal("volume", L.NewFunction(func(L *lua.LState) int {
		v := float64(L.CheckNumber(1))
		f.Volume = &v
		return 0
	}))
	L.SetGlobal("switch", L.NewFunction(func(L *lua.LState) int {
		on := L.CheckBool(3)
		f.Events = append(f.Events, EventSetting{
			At:   float64(L.CheckNumber(1)),
			Type: "switch",
			Name: luaName(L, 2),
			On:   &on,
		})
		return 0
	}))
	L.SetGlobal("knob", L.NewFunction(func(L *lua.LState) int {
		v := float64(L.CheckNumber(3))
		f.Events = append(f.Events, EventSetting{
			At:    float64(L.CheckNumber(1)),
			Type:  "knob",
			Name:  luaName(L, 2),
			Value: &v,
		})
		return 0
	}))
	L.SetGlobal("encoder", L.NewFunction(func(L *lua.LState) int {
		f.Events = append(f.Events, EventSetting{
			At:    float64(L.CheckNumber(1)),
			Type:  "encoder",
			Steps: L.CheckInt(2),
		})
		return 0
	}))

	if err := run(L); err != nil {
		return nil, fmt.Errorf("lua script: %w", err)
	}

	s := NewDefault()
	if err := ApplyFile(s, &f); err != nil {
		return nil, err
	}
	return s, nil
}

// luaName accepts a switch or knob given either as a string or a slot number.
func luaName(L *lua.LState, n int) string {
	switch v := L.CheckAny(n).(type) {
	case lua.LString:
		return string(v)
	case lua.LNumber:
		return fmt.Sprintf("%d", int(v))
	default:
		L.ArgError(n, "expected name or slot number")
		return ""
	}
}
