// Package wasmhost resolves FQNs against a WASM build of the library under
// exploration, using the wazero runtime. Each member path maps to an
// exported function named by joining the FQN segments with underscores;
// arguments and results cross the boundary as JSON.
package wasmhost

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/rix0rrr/cdk-reflect/eval"
)

// Host runs one instantiated WASM library module.
type Host struct {
	runtime  wazero.Runtime
	instance api.Module
}

// New compiles and instantiates the library module.
func New(ctx context.Context, wasm []byte) (*Host, error) {
	config := wazero.NewRuntimeConfig().
		WithMemoryLimitPages(64). // 4MB
		WithCloseOnContextDone(true)
	runtime := wazero.NewRuntimeWithConfig(ctx, config)
	wasi_snapshot_preview1.MustInstantiate(ctx, runtime)

	compiled, err := runtime.CompileModule(ctx, wasm)
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, fmt.Errorf("failed to compile library module: %w", err)
	}
	instance, err := runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("library"))
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate library module: %w", err)
	}
	return &Host{runtime: runtime, instance: instance}, nil
}

// Close releases the runtime.
func (h *Host) Close(ctx context.Context) error {
	return h.runtime.Close(ctx)
}

// Root implements eval.Host by invoking the exported "root" function.
func (h *Host) Root(ctx context.Context) (any, error) {
	return h.invoke(ctx, "root", nil)
}

// Module implements eval.Host.
func (h *Host) Module(name string) (eval.Callable, error) {
	return &callable{host: h, path: []string{name}}, nil
}

type callable struct {
	host *Host
	path []string
}

func (c *callable) export() string { return strings.Join(c.path, "_") }

func (c *callable) Member(name string) (eval.Callable, error) {
	return &callable{host: c.host, path: append(append([]string{}, c.path...), name)}, nil
}

func (c *callable) Call(args []any) (any, error) {
	if args == nil {
		args = []any{}
	}
	return c.host.invoke(context.Background(), c.export(), args)
}

func (c *callable) Value() (any, error) {
	return c.host.invoke(context.Background(), c.export(), nil)
}

// invoke marshals args to JSON, passes them through linear memory, and
// decodes the (ptr, size) JSON result the export returns.
func (h *Host) invoke(ctx context.Context, export string, args []any) (any, error) {
	fn := h.instance.ExportedFunction(export)
	if fn == nil {
		return nil, fmt.Errorf("library does not export %q", export)
	}

	input, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal arguments: %w", err)
	}
	ptr, size, err := h.writeInput(input)
	if err != nil {
		return nil, err
	}

	results, err := fn.Call(ctx, uint64(ptr), uint64(size))
	if err != nil {
		return nil, fmt.Errorf("failed to call %q: %w", export, err)
	}
	if len(results) != 2 {
		return nil, fmt.Errorf("%q should return (ptr, size), got %d results", export, len(results))
	}

	output, err := h.readOutput(uint32(results[0]), uint32(results[1]))
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(output, &out); err != nil {
		return nil, fmt.Errorf("failed to parse output of %q: %w", export, err)
	}
	return out, nil
}

// writeInput copies data to the module's memory with a trivial allocator:
// inputs are written at offset 0 and consumed before the next call.
func (h *Host) writeInput(data []byte) (uint32, uint32, error) {
	mem := h.instance.Memory()
	if mem == nil {
		return 0, 0, fmt.Errorf("module has no memory")
	}
	size := uint32(len(data))
	if uint64(size) > uint64(mem.Size()) {
		return 0, 0, fmt.Errorf("not enough memory: need %d bytes, have %d", size, mem.Size())
	}
	if !mem.Write(0, data) {
		return 0, 0, fmt.Errorf("failed to write to memory")
	}
	return 0, size, nil
}

func (h *Host) readOutput(ptr, size uint32) ([]byte, error) {
	mem := h.instance.Memory()
	if mem == nil {
		return nil, fmt.Errorf("module has no memory")
	}
	data, ok := mem.Read(ptr, size)
	if !ok {
		return nil, fmt.Errorf("failed to read from memory")
	}
	return data, nil
}
