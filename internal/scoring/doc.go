// Package scoring validates a set of five subject scores and derives the
// total, average, pass/fail status and letter grade.
//
// Every function is pure. Validation is all-or-nothing: one missing,
// non-numeric, NaN or out-of-range entry invalidates the whole set.
//
// Grade bands (on the average rounded to 2 decimals, boundaries belong to the
// higher band): A+ ≥90, A ≥80, B ≥70, C ≥60, D ≥50, F below.
//
// Pass is independent of grade: a student passes only when every subject
// scores at least 40, whatever the average.
package scoring
