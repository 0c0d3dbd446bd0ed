// Package guard exposes the live network context to the counter controller.
//
// The wallet/provider collaborator owns the truth about which chain is selected and
// which account is active. It publishes that state through a Source. The controller
// never reads wallet state directly; it holds a *Context, captures a
// types.NetworkSnapshot before every suspension point, and on resumption asks the
// Context whether the snapshot still matches.
//
// A result computed under a snapshot that no longer matches is dropped instead of
// committed. There is no cancellation: the in-flight call finishes, and its answer
// is ignored.
//
// Connection is a ready-made Source for processes that own their connection state
// (tests, the counterd binary).
package guard
