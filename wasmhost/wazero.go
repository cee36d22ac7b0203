package wasmhost

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/luxfi/agentworld/proto"
)

// wasmCallExport is the export every externally supplied .wasm artifact
// must implement: a single exported function, aw_call(req_ptr, req_len)
// -> packed (resp_ptr<<32 | resp_len), operating over the module's own
// linear memory. The request/response bytes are canonical-CBOR-encoded
// ModuleCallRequest/ModuleOutput values, keeping the wire format identical
// to every other persisted/hashed value in this module.
const wasmCallExport = "aw_call"

// WazeroSandbox executes compiled WASM artifacts via
// github.com/tetratelabs/wazero, the pure-Go WASM runtime this module adds
// because no pack repo carries one (see DESIGN.md). Each artifact is
// compiled once (cached under the key moduleArtifactHash returns, which is
// the request's ModuleID) and instantiated fresh
// per call so modules cannot leak state between invocations outside the
// explicit NewState byte string.
type WazeroSandbox struct {
	runtime wazero.Runtime
	loader  func(artifactHash string) ([]byte, error)

	mu       sync.Mutex
	compiled map[string]wazero.CompiledModule
}

// NewWazeroSandbox builds a sandbox backed by a fresh wazero runtime.
// loader is passed the key moduleArtifactHash returns (the request's
// ModuleID) and returns that module's WASM bytes.
func NewWazeroSandbox(ctx context.Context, loader func(artifactHash string) ([]byte, error)) (*WazeroSandbox, error) {
	rt := wazero.NewRuntime(ctx)
	return &WazeroSandbox{runtime: rt, loader: loader, compiled: map[string]wazero.CompiledModule{}}, nil
}

var _ Sandbox = (*WazeroSandbox)(nil)

// Close releases the underlying wazero runtime and every compiled module.
func (s *WazeroSandbox) Close(ctx context.Context) error {
	return s.runtime.Close(ctx)
}

func (s *WazeroSandbox) compiledModule(ctx context.Context, artifactHash string) (wazero.CompiledModule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cm, ok := s.compiled[artifactHash]; ok {
		return cm, nil
	}
	bytes, err := s.loader(artifactHash)
	if err != nil {
		return nil, proto.WrapError(proto.ErrModule, "wasmhost.WazeroSandbox", "load artifact", err)
	}
	cm, err := s.runtime.CompileModule(ctx, bytes)
	if err != nil {
		return nil, proto.WrapError(proto.ErrModule, "wasmhost.WazeroSandbox", "compile module", err)
	}
	s.compiled[artifactHash] = cm
	return cm, nil
}

// Call instantiates req.ModuleID's artifact, writes the canonical-CBOR
// request into its linear memory, invokes aw_call, reads back the
// response, and decodes it as a ModuleOutput. limits.MaxMemoryBytes is
// checked against the instance's memory size once, right after
// instantiation. The call runs on context.Background(), so no wall-clock
// budget applies; MaxWallMillis and MaxInstructions are not enforced here.
func (s *WazeroSandbox) Call(req ModuleCallRequest, limits proto.ModuleLimits) (ModuleOutput, error) {
	ctx := context.Background()
	artifactHash, err := moduleArtifactHash(req)
	if err != nil {
		return ModuleOutput{}, err
	}
	cm, err := s.compiledModule(ctx, artifactHash)
	if err != nil {
		return ModuleOutput{}, err
	}

	config := wazero.NewModuleConfig().WithName(req.ModuleID)
	mod, err := s.runtime.InstantiateModule(ctx, cm, config)
	if err != nil {
		return ModuleOutput{}, &ModuleCallFailure{ModuleID: req.ModuleID, Reason: "instantiate: " + err.Error()}
	}
	defer mod.Close(ctx)
	if limits.MaxMemoryBytes > 0 && uint64(mod.Memory().Size()) > limits.MaxMemoryBytes {
		return ModuleOutput{}, &ModuleCallFailure{ModuleID: req.ModuleID, Reason: "module memory exceeds max_memory_bytes"}
	}

	reqBytes, err := proto.Marshal(req)
	if err != nil {
		return ModuleOutput{}, proto.WrapError(proto.ErrStructural, "wasmhost.WazeroSandbox", "encode request", err)
	}

	reqPtr, err := writeToGuestMemory(ctx, mod, reqBytes)
	if err != nil {
		return ModuleOutput{}, &ModuleCallFailure{ModuleID: req.ModuleID, Reason: err.Error()}
	}

	fn := mod.ExportedFunction(wasmCallExport)
	if fn == nil {
		return ModuleOutput{}, &ModuleCallFailure{ModuleID: req.ModuleID, Reason: "artifact exports no " + wasmCallExport}
	}
	results, err := fn.Call(ctx, uint64(reqPtr), uint64(len(reqBytes)))
	if err != nil {
		return ModuleOutput{}, &ModuleCallFailure{ModuleID: req.ModuleID, Reason: "trap: " + err.Error()}
	}
	if len(results) != 1 {
		return ModuleOutput{}, &ModuleCallFailure{ModuleID: req.ModuleID, Reason: "aw_call returned unexpected arity"}
	}
	respPtr, respLen := unpackResult(results[0])

	respBytes, ok := mod.Memory().Read(respPtr, respLen)
	if !ok {
		return ModuleOutput{}, &ModuleCallFailure{ModuleID: req.ModuleID, Reason: "response out of bounds"}
	}
	var out ModuleOutput
	if err := proto.Unmarshal(respBytes, &out); err != nil {
		return ModuleOutput{}, proto.WrapError(proto.ErrStructural, "wasmhost.WazeroSandbox", "decode response", err)
	}
	return out, nil
}

func moduleArtifactHash(req ModuleCallRequest) (string, error) {
	if req.ModuleID == "" {
		return "", proto.NewError(proto.ErrStructural, "wasmhost.WazeroSandbox", "empty module id")
	}
	return req.ModuleID, nil
}

// writeToGuestMemory allocates space in the module's linear memory and
// writes data into it. Artifacts are expected to export a "memory" and
// (if they need heap allocation) an "aw_alloc(len) -> ptr" function; when
// absent, the request is written at a fixed low offset reserved for
// single-shot calls.
func writeToGuestMemory(ctx context.Context, mod api.Module, data []byte) (uint32, error) {
	if alloc := mod.ExportedFunction("aw_alloc"); alloc != nil {
		results, err := alloc.Call(ctx, uint64(len(data)))
		if err != nil || len(results) != 1 {
			return 0, proto.NewError(proto.ErrModule, "wasmhost.WazeroSandbox", "aw_alloc failed")
		}
		ptr := uint32(results[0])
		if !mod.Memory().Write(ptr, data) {
			return 0, proto.NewError(proto.ErrModule, "wasmhost.WazeroSandbox", "aw_alloc returned out-of-bounds pointer")
		}
		return ptr, nil
	}
	const fixedOffset = 1024
	if !mod.Memory().Write(fixedOffset, data) {
		return 0, proto.NewError(proto.ErrModule, "wasmhost.WazeroSandbox", "module memory too small for request")
	}
	return fixedOffset, nil
}

func unpackResult(packed uint64) (ptr, length uint32) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, packed)
	return binary.BigEndian.Uint32(buf[:4]), binary.BigEndian.Uint32(buf[4:])
}
