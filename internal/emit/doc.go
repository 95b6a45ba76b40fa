// Package emit builds members on mutable types: backing fields,
// properties with accessor methods, constructors that forward to a base
// constructor, overrides, and instruction bodies.
//
// Emission never validates. A constructor that forwards the wrong
// arguments produces a body that fails vm.Verify, not an error here.
package emit
