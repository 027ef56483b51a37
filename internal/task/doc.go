// Package task runs study persistence in the background. A TaskRunner owns
// a bounded TaskQueue drained by a WorkerPool; SaveStudyTask writes one
// study snapshot through a store.StudyStore.
//
// Saves are coalesced: every task carries the sequence number of its
// snapshot and a shared SequenceTracker lets a task skip itself when a newer
// snapshot is already queued or saved, so the latest snapshot always wins.
package task
