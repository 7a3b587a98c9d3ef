// Package ciconfig holds the build configuration document.
//
// The document is a tree of Values, each one a scalar, a sequence, a mapping
// or null. Mappings keep the key order of the source file. Accessors return
// typed results, or a *ShapeError / *MissingFieldError that names the path of
// the offending value, so a malformed config is reported instead of coerced.
package ciconfig
