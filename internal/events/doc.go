// Package events carries task requests from the services that create work to
// the task package that executes it, without either importing the other.
//
// A TaskRequestEvent names a task type and a JSON payload. Services publish
// events through an EventEmitter; the task package registers an EventHandler
// that turns each event into a persisted, queued task.
package events
