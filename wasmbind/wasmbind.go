package wasmbind

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"fortio.org/safecast"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/suspendjs/errors"
	"github.com/wippyai/suspendjs/sandbox"
)

// DefaultNamespace is the global object exports are bound under.
const DefaultNamespace = "wasm"

// Config holds configuration for Load.
type Config struct {
	Logger *zap.Logger

	// Namespace defaults to DefaultNamespace.
	Namespace string

	// MemoryLimitPages sets the maximum memory in pages (64KB each).
	// 0 means the wazero default.
	MemoryLimitPages uint32

	// WASI instantiates wasi_snapshot_preview1 before the module so
	// reactor modules built for WASI can be loaded.
	WASI bool

	// Async binds every export as an asynchronous host function.
	Async bool
}

// Module is an instantiated module and its callable exports.
type Module struct {
	log      *zap.Logger
	runtime  wazero.Runtime
	instance api.Module
	exports  map[string]export
	ns       string
	async    bool

	// calls into one instance must not overlap
	mu sync.Mutex
}

type export struct {
	fn      api.Function
	params  []api.ValueType
	results []api.ValueType
}

// Load compiles and instantiates wasm. Exports with non-numeric
// parameters or results are skipped.
func Load(ctx context.Context, wasm []byte, cfg Config) (*Module, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}

	runtimeCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	m, err := load(ctx, rt, wasm, cfg)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	return m, nil
}

func load(ctx context.Context, rt wazero.Runtime, wasm []byte, cfg Config) (*Module, error) {
	if cfg.WASI {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
			return nil, errors.Wrap(errors.PhaseHost, errors.KindConfiguration, err, "instantiate wasi")
		}
	}

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "compile module")
	}

	modCfg := wazero.NewModuleConfig().WithName("").WithStartFunctions("_initialize")
	inst, err := rt.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHost, errors.KindConfiguration, err, "instantiate module")
	}

	m := &Module{
		log:      cfg.Logger,
		runtime:  rt,
		instance: inst,
		exports:  make(map[string]export),
		ns:       cfg.Namespace,
		async:    cfg.Async,
	}
	for name, def := range compiled.ExportedFunctions() {
		if !numeric(def.ParamTypes()) || !numeric(def.ResultTypes()) {
			m.log.Debug("skipping export", zap.String("name", name))
			continue
		}
		m.exports[name] = export{
			fn:      inst.ExportedFunction(name),
			params:  def.ParamTypes(),
			results: def.ResultTypes(),
		}
	}
	return m, nil
}

func numeric(types []api.ValueType) bool {
	for _, t := range types {
		switch t {
		case api.ValueTypeI32, api.ValueTypeI64, api.ValueTypeF32, api.ValueTypeF64:
		default:
			return false
		}
	}
	return true
}

// Names returns the bound export names in sorted order.
func (m *Module) Names() []string {
	names := make([]string, 0, len(m.exports))
	for name := range m.exports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SuspendingNames returns the dotted names of the exports when they are
// bound asynchronously, and nil otherwise.
func (m *Module) SuspendingNames() []string {
	if !m.async {
		return nil
	}
	names := m.Names()
	for i, n := range names {
		names[i] = m.ns + "." + n
	}
	return names
}

// Register binds every export under the module's namespace.
func (m *Module) Register(b *sandbox.Bindings) error {
	for _, name := range m.Names() {
		fn := m.caller(name)
		var err error
		if m.async {
			err = b.RegisterFuncAsync(m.ns, name, fn)
		} else {
			err = b.RegisterFunc(m.ns, name, fn)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *Module) caller(name string) func(ctx context.Context, args ...float64) (any, error) {
	return func(ctx context.Context, args ...float64) (any, error) {
		return m.Call(ctx, name, args...)
	}
}

// Call invokes an export. Missing arguments are zero.
func (m *Module) Call(ctx context.Context, name string, args ...float64) (any, error) {
	e, ok := m.exports[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseHost, "export", name)
	}
	if len(args) > len(e.params) {
		return nil, fmt.Errorf("%s: expected at most %d arguments, got %d", name, len(e.params), len(args))
	}

	stack := make([]uint64, len(e.params))
	for i, t := range e.params {
		if i >= len(args) {
			break
		}
		v, err := encode(args[i], t)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", name, i+1, err)
		}
		stack[i] = v
	}

	m.mu.Lock()
	out, err := e.fn.Call(ctx, stack...)
	m.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	switch len(e.results) {
	case 0:
		return nil, nil
	case 1:
		return decode(out[0], e.results[0]), nil
	}
	vals := make([]float64, len(out))
	for i, raw := range out {
		vals[i] = decode(raw, e.results[i])
	}
	return vals, nil
}

// Close releases the instance and its runtime.
func (m *Module) Close(ctx context.Context) error {
	return m.runtime.Close(ctx)
}

func encode(f float64, t api.ValueType) (uint64, error) {
	switch t {
	case api.ValueTypeF32:
		return api.EncodeF32(float32(f)), nil
	case api.ValueTypeF64:
		return api.EncodeF64(f), nil
	}

	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%v is out of range for %s", f, api.ValueTypeName(t))
	}
	n := int64(f)

	if t == api.ValueTypeI64 {
		return api.EncodeI64(n), nil
	}
	if v, err := safecast.Conv[int32](n); err == nil {
		return api.EncodeI32(v), nil
	}
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return 0, fmt.Errorf("%v is out of range for i32", f)
	}
	return api.EncodeU32(v), nil
}

func decode(raw uint64, t api.ValueType) float64 {
	switch t {
	case api.ValueTypeI32:
		return float64(api.DecodeI32(raw))
	case api.ValueTypeI64:
		return float64(int64(raw))
	case api.ValueTypeF32:
		return float64(api.DecodeF32(raw))
	}
	return api.DecodeF64(raw)
}
