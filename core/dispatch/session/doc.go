// Package session stores per-identity conversation state and drives
// declared multi-step workflows through version-checked mutations.
package session
