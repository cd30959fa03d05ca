package scripting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM holding spawn hooks.
// Single-goroutine access only (host loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua VM and loads every .lua file under the core and
// spawn subdirectories of scriptsDir. Missing directories are skipped.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	for _, sub := range []string{"core", "spawn"} {
		if err := e.loadDir(filepath.Join(scriptsDir, sub)); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

// LoadString runs a chunk of Lua source in the engine's VM.
func (e *Engine) LoadString(src string) error {
	return e.vm.DoString(src)
}

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// HasSpawnPosition reports whether a script defines spawn_position.
func (e *Engine) HasSpawnPosition() bool {
	return e.vm.GetGlobal("spawn_position").Type() == lua.LTFunction
}

// SpawnPosition calls spawn_position(seq, radius), which must return three
// finite numbers. ok is false when no script defines the function.
func (e *Engine) SpawnPosition(seq int, radius float64) (pos mgl64.Vec3, ok bool, err error) {
	fn := e.vm.GetGlobal("spawn_position")
	if fn.Type() != lua.LTFunction {
		return mgl64.Vec3{}, false, nil
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    3,
		Protect: true,
	}, lua.LNumber(seq), lua.LNumber(radius)); err != nil {
		return mgl64.Vec3{}, true, fmt.Errorf("lua spawn_position: %w", err)
	}

	for i := 0; i < 3; i++ {
		v := e.vm.Get(-3 + i)
		n, isNum := v.(lua.LNumber)
		if !isNum {
			e.vm.Pop(3)
			return mgl64.Vec3{}, true, fmt.Errorf("lua spawn_position: return %d is %s, want number", i+1, v.Type())
		}
		f := float64(n)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			e.vm.Pop(3)
			return mgl64.Vec3{}, true, fmt.Errorf("lua spawn_position: return %d is %v, want a finite number", i+1, f)
		}
		pos[i] = f
	}
	e.vm.Pop(3)
	return pos, true, nil
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}
