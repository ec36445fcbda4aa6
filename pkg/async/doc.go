// Package async provides the small set of asynchronous building blocks used by
// the Seal preview client.
//
// An Op is a unit of work that completes exactly once with either a value or
// an error. Join runs a named set of Ops concurrently and reports the outcome
// of all of them together:
//
//	res, err := async.Join(map[string]async.Op[int]{
//		"a": fetchA,
//		"b": fetchB,
//	})(ctx)
//
//	var jerr *async.JoinError
//	if errors.As(err, &jerr) {
//		// jerr.Failures holds only the keys that failed
//	}
//
// Join never exits early: a failing Op does not stop its siblings, and no
// result is reported until every Op has settled.
//
// Callback-style producers are adapted with FromCallback, which accepts the
// first completion and drops any later one.
package async
