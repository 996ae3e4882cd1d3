// Package harness runs end-to-end authorization scenarios from YAML
// fixtures. A scenario declares a deployment, a set of users and
// documents, and a sequence of write and check steps; the runner wires the
// real compiler and enforcer together and reports every mismatch.
//
// Golden tests snapshot the compiled policy's text dump, so a change to
// compilation output shows up as a reviewable diff.
package harness
