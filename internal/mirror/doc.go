// Package mirror implements the state mirror agent: a keyed snapshot of
// runtime state with synchronous observer fan-out.
//
// ARCHITECTURE:
//
// Single-Owner Mutation:
// One agent instance owns one state mapping. All mutation flows through
// Update, which rebroadcasts the post-mutation state to every observer in
// registration order. Observers never see the live mapping - every payload
// is a deep copy, so a misbehaving observer cannot corrupt the mirror or
// its peers.
//
// Broadcast Contract:
//   - exactly one broadcast per Update, in mutation order
//   - observers notified in registration order
//   - an observer failure does not stop delivery to later observers;
//     failures are aggregated into a *BroadcastError returned to the
//     Update caller after all observers have been attempted
//
// Keys, once introduced, persist for the agent's started lifetime.
// Key order is insertion order and is preserved for deterministic output.
//
// The agent is single-flow: callers serialize Start/Subscribe/Update/Stop
// on a given instance. Independent instances are fully isolated.
package mirror
