// Package compute provides the computational task bodies submitted to the
// engine: binary word operations, hashing, dense matrix kernels, and a small
// state-vector quantum simulator. The engine treats them as opaque closures;
// their results flow back through the run store, not through the core.
//
// Kinds are looked up through an explicit Registry constructed in main and
// passed by reference; there is no process-wide registration.
package compute
