// Package natskv implements the watchmux remote-store contract on top of a
// NATS JetStream KeyValue bucket.
//
// Documents live as KV entries inside a single bucket. A resource path like
// "teams/t1/members/u1" maps onto the KV key space by translating the
// path separators to subject tokens: collection "teams/t1/members" and
// document "u1" become the key "teams.t1.members.u1". A collection watch is
// then a single-token wildcard watch ("teams.t1.members.*"), which is why
// collection paths must not contain '.' and document ids must not contain
// '.' or '/'.
//
// Each live watch runs one pump goroutine that converts KV entries into
// snapshots, so deliveries for a given watch are serialized in arrival
// order. A document watch always delivers an initial snapshot (a tombstone
// when the document does not exist) and a collection watch always delivers
// the initial, possibly empty, result set.
package natskv
