// Package event defines the canonical event envelope and event-type registry
// used by the recording write path.
//
// Events are immutable facts about the simulation timeline. The journal
// assigns sequence numbers at append time; the registry maps known event
// types to typed payloads and keeps an opaque raw-document fallback for
// forward-compatible unknown types.
//
// A stable event contract is the foundation for replay, fork correctness,
// and observers that depend on the same semantic names.
package event
