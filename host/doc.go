// Package host runs compiled contracts with wazero.
//
// An Executor keeps one compiled module per deployed account. Every call
// instantiates a fresh module instance wired to a new vm.Logic through the
// "env" import module, so no guest state survives between calls except what
// the contract wrote to storage.
//
// WASI is available for the Go runtime's own needs only. Its clocks and
// random source are deterministic: walltime is the block timestamp and
// random bytes are derived from the call's random seed.
package host
