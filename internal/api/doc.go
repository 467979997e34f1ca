// Package api implements the HTTP JSON adapter for gradebook.
//
// New(dispatcher) returns an http.Handler that serves the route table in
// Routes, each entry binding a request to one command:
//
//	POST   /api/v1/calculate          - calculate; nothing is stored
//	GET    /api/v1/records            - list, newest first, plus latest
//	POST   /api/v1/records            - save; 201 with the new record
//	GET    /api/v1/records/{id}       - view the raw record
//	POST   /api/v1/records/{id}/load  - form values and a fresh result
//	DELETE /api/v1/records/{id}       - delete; needs ?confirm=true or X-Confirm: true
//	GET    /api/v1/health             - status and record count
//
// Request body for calculate and save:
//
//	{"scores": [70, "80", "", null, 75], "student": "Ada"}
//
// Scores may be numbers, numeric strings, empty strings or null; anything
// that is not a number counts as a missing entry.
//
// Errors are JSON {"error": "..."}: 400 malformed body, 404 unknown record,
// 422 invalid scores, 428 delete not confirmed, 500 storage failure. A load
// of a stored record that no longer validates answers 422 with the form
// filled and the message in "error".
// Every response carries X-Request-ID.
package api
