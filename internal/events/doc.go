// Package events decouples the study service from persistence. The service
// emits a StudyChangedEvent after every accepted submission; handlers such
// as the task package's save handler react to it without the service
// knowing about them.
package events
