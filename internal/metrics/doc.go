// Package metrics counts gradebook activity and renders it in the Prometheus
// text exposition format at GET /metrics.
//
// Exposed families:
//
//	gradebook_calculations_total{outcome="valid|invalid"}  counter
//	gradebook_grades_total{grade="A+|A|B|C|D|F"}           counter
//	gradebook_results_total{status="pass|fail"}            counter
//	gradebook_records_saved_total                          counter
//	gradebook_records_deleted_total                        counter
//	gradebook_records                                      gauge
package metrics
