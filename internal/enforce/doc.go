// Package enforce wires compiled policies into the record lifecycle. The
// Enforcer answers authorize questions for the write path and the scan
// iterator, stamps the classificationMarked flag on writes, and validates
// marking levels against the deployment clamp and database ceilings.
//
// The enforcer holds no per-call state. Each caller carries its own
// UserContext and the session's compiled policy; abandoning a scan between
// records is the only cancellation needed.
package enforce
