package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// ErrNoFunction is returned when a script function is not defined.
var ErrNoFunction = errors.New("lua function not defined")

// Engine wraps a single gopher-lua VM for AI decisions.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

func newVM() *lua.LState {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.SetGlobal("CHASE", lua.LString(ActionChase))
	vm.SetGlobal("SHOOT", lua.LString(ActionShoot))
	return vm
}

// NewEngine creates a Lua engine and loads every script in scriptsDir and
// its ai/ subdirectory. Missing directories are skipped.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	e := &Engine{vm: newVM(), log: log}
	for _, dir := range []string{scriptsDir, filepath.Join(scriptsDir, "ai")} {
		if err := e.loadDir(dir); err != nil {
			e.vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

// NewEngineFromSource creates an engine running the given chunk.
func NewEngineFromSource(src string, log *zap.Logger) (*Engine, error) {
	e := &Engine{vm: newVM(), log: log}
	if err := e.vm.DoString(src); err != nil {
		e.vm.Close()
		return nil, fmt.Errorf("load lua source: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory in name order.
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

// Has reports whether a global function named fn is defined.
func (e *Engine) Has(fn string) bool {
	_, ok := e.vm.GetGlobal(fn).(*lua.LFunction)
	return ok
}

// Action names shared with scripts.
const (
	ActionChase = "chase"
	ActionShoot = "shoot"
)

// AIInput is the state handed to a decision function when a bot's action
// timer expires.
type AIInput struct {
	Action           string // action that just ended
	HP               float64
	MaxHP            float64
	HasTarget        bool
	TargetDist       float64
	ChaseProbability float64
	Roll             float64 // uniform in [0,1), drawn by the caller
}

// AIDecision is the next action and, optionally, how long to keep it.
type AIDecision struct {
	Action   string
	Duration float64 // seconds; 0 = configured duration
}

// DecideAction calls the Lua function fn(ctx) which must return a table
// {action = "chase"|"shoot", duration = seconds}.
func (e *Engine) DecideAction(fn string, in AIInput) (AIDecision, error) {
	f, ok := e.vm.GetGlobal(fn).(*lua.LFunction)
	if !ok {
		return AIDecision{}, fmt.Errorf("%s: %w", fn, ErrNoFunction)
	}

	t := e.vm.NewTable()
	t.RawSetString("action", lua.LString(in.Action))
	t.RawSetString("hp", lua.LNumber(in.HP))
	t.RawSetString("max_hp", lua.LNumber(in.MaxHP))
	t.RawSetString("has_target", lua.LBool(in.HasTarget))
	t.RawSetString("target_dist", lua.LNumber(in.TargetDist))
	t.RawSetString("chase_probability", lua.LNumber(in.ChaseProbability))
	t.RawSetString("roll", lua.LNumber(in.Roll))

	if err := e.vm.CallByParam(lua.P{
		Fn:      f,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		return AIDecision{}, fmt.Errorf("lua %s: %w", fn, err)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		return AIDecision{}, fmt.Errorf("lua %s returned %s, want table", fn, result.Type())
	}
	d := AIDecision{
		Action:   lStr(rt, "action"),
		Duration: lNum(rt, "duration"),
	}
	if d.Action != ActionChase && d.Action != ActionShoot {
		return AIDecision{}, fmt.Errorf("lua %s: unknown action %q", fn, d.Action)
	}
	if d.Duration < 0 {
		d.Duration = 0
	}
	return d, nil
}

// --- Lua helpers ---

// lNum reads a number field from a Lua table.
func lNum(t *lua.LTable, key string) float64 {
	return float64(lua.LVAsNumber(t.RawGetString(key)))
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
