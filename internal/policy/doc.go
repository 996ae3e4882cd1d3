// Package policy turns an attribute authority's answer about a user into a
// compiled rule tree. The compiler runs once per authenticated session,
// outside any storage lock; its output is immutable and shared by every
// concurrent evaluation for that session.
package policy
