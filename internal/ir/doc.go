// Package ir provides the in-memory object graph for generated types.
//
// A TypeDef owns its fields, properties, methods and nested types. Method
// bodies are ordered sequences of Instr values (see instr.go); they are pure
// data and carry no dependency on a bytecode writer, so they can be
// persisted, fingerprinted and interpreted in tests.
//
// This package imports nothing internal. The host module, the reference
// libraries, the member builder and the build-cache ledger all build on it.
//
// Key constraints:
//   - Full names use '.' between namespace and name, '/' between a
//     declaring type and a nested type.
//   - Members are referenced across modules by name (TypeRef, MethodRef,
//     FieldRef), never by pointer.
//   - Attribute arguments are constrained Values (no floats, no null).
//   - All JSON tags use snake_case.
package ir
