// Package stage holds the StageRegistry: the ordered catalogue of process
// stages a unit must pass.
//
// The registry is owned by configuration. Stages are declared in a CUE file
// validated against an embedded schema, normalised once on load into
// ir.StageDefinition values (ids 1..N in declaration order, a fixed
// [8]AuxField array, a tagged ir.Standard) and then treated as read-only.
//
// A Registry value is immutable. Hot reload (Watcher) produces a new
// Registry and hands it to the caller; nothing is mutated in place.
package stage
