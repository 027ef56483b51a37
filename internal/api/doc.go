// Package api exposes the study over HTTP: submissions are posted to
// /submissions and the aggregated statistics are read from /statistics.
// Handlers translate between JSON and the StudyService; CORS, tracing, panic
// recovery and request metrics live in the middleware subpackage.
package api
