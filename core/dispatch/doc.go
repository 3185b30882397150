// Package dispatch routes inbound chat events to handlers. Every event
// flows through an ordered middleware chain (identity resolution,
// permission enrichment), then the router picks exactly one handler by
// command, callback action, or active workflow state. Same-identity
// events are processed strictly sequentially; failures are classified
// and mapped to responses at the dispatch boundary.
package dispatch
