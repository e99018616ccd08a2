// Package camera unifies heterogeneous camera backends behind one
// contract. A Camera wraps a backend Driver and enforces everything
// callers rely on across backends: the Uninitialized -> Initialized ->
// Open <-> Closed lifecycle, parameter resolution with AUTO and DEFAULT
// tokens, validated runtime properties, and buffered frame delivery with
// explicit overflow reporting.
//
// Backend selection is explicit. Callers pick a Kind at construction
// time through New or one of the per-backend constructors; nothing here
// probes hardware to guess. In-tree backends register their factories in
// the backendregistry package, vendor SDK drivers register from their
// own modules.
//
// Factories return a reference-counted Handle so several consumers can
// share one physical device; the device closes when the last reference
// is released.
package camera
