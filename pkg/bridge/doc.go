// Package bridge implements the connection and session orchestration core of
// AccessBridge.
//
// A Session owns two independent views of one backing database file: a
// lightweight tabular connection (database/sql over the file) used for schema
// enumeration and direct query execution, and a heavyweight automation engine
// (the host process's full object model) used for design-time work on forms,
// reports, macros, and modules.
//
// The file permits only one exclusive holder, so the two views have to be
// arbitrated: before the engine reopens the file exclusively, the tabular
// handle is released and restored afterward (RunWithTabularReleased, reentrant
// via a depth counter). Automation calls run under a classify-and-retry policy
// (RunAutomation): a recognized transient lock/state error tears the engine
// down and retries the whole operation exactly once. Design-surface objects
// are opened on demand and closed again only by the call that opened them
// (WithLoadedObject).
//
// The Session is single-threaded: the transport layer serializes calls, and
// the core performs no internal locking.
package bridge
