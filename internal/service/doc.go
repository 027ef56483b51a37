// Package service holds the application layer of the study server. The
// StudyService funnels every read and write of the in-memory Study through
// one lock, so HTTP handlers may call it concurrently, and hands each new
// snapshot to persistence through an event.
package service
