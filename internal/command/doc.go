// Package command is the dispatch table between user-facing actions and the
// scoring engine and record store. Adapters (the HTTP API, the stream hub)
// translate their events into a Name plus a Request and call Dispatch; none
// of them touch the store directly.
//
// Commands:
//
//	calculate - validate and derive a result; nothing is persisted
//	save      - calculate, then append the result as a new record
//	list      - records newest first, with the most recent one separately
//	load      - stored scores and name for the form, plus a fresh result
//	view      - the raw stored record
//	delete    - remove a record; requires Request.Confirmed
//
// Expected failures are returned as *scoring.ValidationError, *LookupError
// or ErrConfirmationDeclined and never change state.
package command
