// Package audit verifies a completed write by reading every produced
// location back from the backend.
//
// Each strategy hands the auditor its locations and a Probe that knows how
// to read them:
//
//	Document  leaf paths     GetDocument(key, "$.path")  null, string, object, array
//	FlatHash  leaf paths     HashGet(key, path)          null, string
//	Grouped   physical keys  TypeOf, then HashGetAll     null, hash, list
//	                         or ListRange
//
// A location that reads back null or missing is added to Result.Absent and
// counted as KindNull. Read errors are logged and treated the same way, so
// the counts in a Result always sum to the number of locations.
//
// FileArtifacts persists the two location sets as newline-delimited files
// after each call.
package audit
