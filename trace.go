package attrmap

import (
	"encoding/json"
	"fmt"
)

// Trace captures provenance information for a path lookup across the layers
// that produced the effective value.
type Trace struct {
	Path   string       `json:"path"`
	Layers []Provenance `json:"layers"`
}

// Provenance details how a specific layer contributed to a traced path.
type Provenance struct {
	Scope      Scope  `json:"scope"`
	SnapshotID string `json:"snapshot_id,omitempty"`
	Path       string `json:"path"`
	Value      any    `json:"value,omitempty"`
	Found      bool   `json:"found"`
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated
// via ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}

// ResolveWithTrace returns the effective value for a dotted path together
// with per-layer provenance. Maps produced by Stack.Merge report every
// contributing layer strongest first; Maps without layer metadata report a
// single entry for the backing itself. The lookup error is returned when no
// layer (and not the merged backing) holds the path.
func (m *Map) ResolveWithTrace(path string) (any, Trace, error) {
	if path == "" {
		return nil, Trace{}, fmt.Errorf("attrmap: path must not be empty")
	}

	trace := Trace{Path: path}
	value, found := lookupPath(m.backing, path)

	if len(m.layers) == 0 {
		trace.Layers = []Provenance{{
			Path:  path,
			Value: value,
			Found: found,
		}}
	} else {
		trace.Layers = make([]Provenance, 0, len(m.layers))
		for _, layer := range m.layers {
			layerValue, layerFound := lookupPath(layer.Snapshot, path)
			trace.Layers = append(trace.Layers, Provenance{
				Scope:      layer.Scope,
				SnapshotID: layer.SnapshotID,
				Path:       path,
				Value:      layerValue,
				Found:      layerFound,
			})
		}
	}

	if !found {
		return nil, trace, fmt.Errorf("%w: path %q", ErrKeyNotFound, path)
	}
	return value, trace, nil
}
