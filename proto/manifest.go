package proto

import (
	"fmt"
	"sort"
	"strings"
)

// Manifest is the governance-visible description of active rules,
// parameters, and modules for a world.
type Manifest struct {
	Rules     map[string]string `cbor:"rules"`
	Params    map[string]string `cbor:"params"`
	ModuleIDs []string          `cbor:"module_ids"`
}

// NewManifest returns an empty, ready-to-diff manifest.
func NewManifest() Manifest {
	return Manifest{Rules: map[string]string{}, Params: map[string]string{}}
}

// Clone returns a deep copy, since Manifest is mutated via patches.
func (m Manifest) Clone() Manifest {
	out := Manifest{
		Rules:     make(map[string]string, len(m.Rules)),
		Params:    make(map[string]string, len(m.Params)),
		ModuleIDs: append([]string(nil), m.ModuleIDs...),
	}
	for k, v := range m.Rules {
		out.Rules[k] = v
	}
	for k, v := range m.Params {
		out.Params[k] = v
	}
	return out
}

// PatchOpKind tags the variant of PatchOp, mirroring RFC 6902's "op" field
// restricted to the subset the manifest schema actually needs.
type PatchOpKind string

const (
	PatchAdd     PatchOpKind = "add"
	PatchRemove  PatchOpKind = "remove"
	PatchReplace PatchOpKind = "replace"
)

// PatchOp is a single RFC-6902-style manifest mutation. Path is
// "rules.<key>", "params.<key>", or "module_ids" (whole-list replace only).
type PatchOp struct {
	Op    PatchOpKind `cbor:"op"`
	Path  string      `cbor:"path"`
	Value string      `cbor:"value,omitempty"`
}

// ApplyManifestPatch applies ops to base in order, returning a new Manifest.
// It never mutates base.
func ApplyManifestPatch(base Manifest, ops []PatchOp) (Manifest, error) {
	out := base.Clone()
	for _, op := range ops {
		if err := applyOne(&out, op); err != nil {
			return Manifest{}, err
		}
	}
	return out, nil
}

func applyOne(m *Manifest, op PatchOp) error {
	section, key, err := splitPath(op.Path)
	if err != nil {
		return err
	}
	var target map[string]string
	switch section {
	case "rules":
		target = m.Rules
	case "params":
		target = m.Params
	case "module_ids":
		if key != "" {
			return &PatchError{Kind: PatchErrInvalidPath, Path: op.Path}
		}
		switch op.Op {
		case PatchAdd, PatchReplace:
			m.ModuleIDs = strings.Split(op.Value, ",")
			if op.Value == "" {
				m.ModuleIDs = nil
			}
		case PatchRemove:
			m.ModuleIDs = nil
		}
		return nil
	default:
		return &PatchError{Kind: PatchErrInvalidPath, Path: op.Path}
	}
	if key == "" {
		return &PatchError{Kind: PatchErrNonObject, Path: op.Path}
	}
	switch op.Op {
	case PatchAdd, PatchReplace:
		target[key] = op.Value
	case PatchRemove:
		delete(target, key)
	}
	return nil
}

func splitPath(path string) (section, key string, err error) {
	parts := strings.SplitN(path, ".", 2)
	if len(parts) == 0 || parts[0] == "" {
		return "", "", &PatchError{Kind: PatchErrInvalidPath, Path: path}
	}
	if len(parts) == 1 {
		return parts[0], "", nil
	}
	return parts[0], parts[1], nil
}

// DiffManifest produces the minimal ordered op list turning a into b.
// Ordering is deterministic: rules keys, then params keys, then module_ids,
// all lexicographic, so two diffs of equal manifests are byte-identical.
func DiffManifest(a, b Manifest) []PatchOp {
	var ops []PatchOp
	ops = append(ops, diffSection("rules", a.Rules, b.Rules)...)
	ops = append(ops, diffSection("params", a.Params, b.Params)...)
	if !stringSliceEqual(a.ModuleIDs, b.ModuleIDs) {
		ops = append(ops, PatchOp{Op: PatchReplace, Path: "module_ids", Value: strings.Join(b.ModuleIDs, ",")})
	}
	return ops
}

func diffSection(section string, a, b map[string]string) []PatchOp {
	keys := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var ops []PatchOp
	for _, k := range sorted {
		av, aok := a[k]
		bv, bok := b[k]
		switch {
		case !aok && bok:
			ops = append(ops, PatchOp{Op: PatchAdd, Path: section + "." + k, Value: bv})
		case aok && !bok:
			ops = append(ops, PatchOp{Op: PatchRemove, Path: section + "." + k})
		case aok && bok && av != bv:
			ops = append(ops, PatchOp{Op: PatchReplace, Path: section + "." + k, Value: bv})
		}
	}
	return ops
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ConflictKind tags how two concurrent patches disagreed.
type ConflictKind string

const (
	ConflictValueMismatch ConflictKind = "value_mismatch"
)

// PatchConflict records a deterministic merge conflict between two ops
// touching the same path.
type PatchConflict struct {
	Path string       `cbor:"path"`
	Kind ConflictKind `cbor:"kind"`
	A    string       `cbor:"a"`
	B    string       `cbor:"b"`
}

// PatchMergeResult is the outcome of merging two patch sets.
type PatchMergeResult struct {
	Merged    []PatchOp       `cbor:"merged"`
	Conflicts []PatchConflict `cbor:"conflicts,omitempty"`
}

// MergeManifestPatches merges two op lists path-by-path; later patches in
// "b" win when paths don't conflict, and any differing value at the same
// path is reported as a conflict rather than silently resolved.
func MergeManifestPatches(a, b []PatchOp) PatchMergeResult {
	byPath := map[string]PatchOp{}
	order := make([]string, 0, len(a)+len(b))
	var conflicts []PatchConflict

	apply := func(ops []PatchOp) {
		for _, op := range ops {
			if existing, ok := byPath[op.Path]; ok {
				if existing.Value != op.Value || existing.Op != op.Op {
					conflicts = append(conflicts, PatchConflict{
						Path: op.Path, Kind: ConflictValueMismatch,
						A: existing.Value, B: op.Value,
					})
				}
				byPath[op.Path] = op
				continue
			}
			byPath[op.Path] = op
			order = append(order, op.Path)
		}
	}
	apply(a)
	apply(b)

	sort.Strings(order)
	merged := make([]PatchOp, 0, len(order))
	for _, path := range order {
		merged = append(merged, byPath[path])
	}
	return PatchMergeResult{Merged: merged, Conflicts: conflicts}
}

// PatchError reports a malformed patch path or target.
type PatchError struct {
	Kind PatchErrKind
	Path string
}

type PatchErrKind string

const (
	PatchErrInvalidPath PatchErrKind = "invalid_path"
	PatchErrNonObject   PatchErrKind = "non_object"
)

func (e *PatchError) Error() string {
	return fmt.Sprintf("manifest patch %s: %s", e.Kind, e.Path)
}
