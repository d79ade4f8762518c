// Package secrets implements the secret store engine: per-config key/value
// documents, config-chain export and cross-config comparison.
//
// The engine owns no inheritance state of its own; it walks parent pointers
// through the store.Configs collaborator and merges chains root-to-leaf so
// the most specific config wins per key.
package secrets
