// Package task manages background job queuing, processing, and lifecycle.
//
// Tasks are persisted before they are queued so that a restart can recover
// anything that was pending or mid-flight. A Registry maps each task type
// to the Factory that rebuilds executable tasks from events and from stored
// payloads. The only task type the service defines today renders card
// images (ImageRenderTask), which is idempotent and therefore safe under the
// runner's at-least-once delivery.
package task
