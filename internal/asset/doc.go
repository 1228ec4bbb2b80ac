// Package asset defines the typed synesthetic asset model and its
// structural validation boundary.
//
// An asset source is a JSON document describing optional shader, tone and
// haptic sections, a list of control parameters, and a list of modulation
// rules. The package validates raw sources against an embedded CUE schema
// (schema.cue) and decodes them into the typed Asset graph in one step:
//
//	a, err := asset.Decode("example.json", raw)
//
// Validation is fail-fast: a source that does not satisfy the schema
// produces a single *DecodeError and no partial Asset. Downstream code
// (issue derivation, modulation-rule extraction) operates only on the
// typed record, never on raw maps.
//
// The schema deliberately types `waveform` as an open string rather than a
// closed enum: an unknown waveform must survive loading so the simulation
// loop can reject it with a rule error that preserves partial run state.
//
// Assets are immutable after decoding. Nothing in this package mutates an
// Asset once returned.
package asset
