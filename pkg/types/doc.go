// Package types defines the shared contract types of gradebook: the letter
// Grade, the CalculationResult produced by the scoring engine and the Record
// persisted by the record store.
//
// The JSON encoding of Record is the persisted blob format:
//
//	[{"id": "2026-01-01T09:00:00.000Z", "scores": [70, 80, 90, 60, 75],
//	  "total": 375, "average": 75, "pass": true, "grade": "B",
//	  "student": "Ada"}]
//
// Record.UnmarshalJSON also accepts the older "avg" field name written by the
// browser version of the calculator.
package types
