// Package document provides the read-only JSON view of a record that the
// classification enforcement layer consumes.
//
// The storage and mutation layers materialize a record into a document.Object
// before handing it to the enforcer. The value model is sealed: only Null,
// String, Int, Bool, Array, and Object implement Value. Classification
// payloads carry no floating point numbers, so numbers decode to int64 and
// floats are rejected at the boundary rather than silently truncated.
package document
