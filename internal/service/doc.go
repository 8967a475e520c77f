// Package service contains the application use cases. It orchestrates the
// generation pipeline, the stores defined in internal/store and the image
// dispatch path so that the delivery layers (HTTP API, CLI) stay thin.
//
// Writes that span several stores run inside a store.Transactor so a topic
// never ends up with a partial card set. Image rendering is handed off after
// commit and never affects the outcome of a generation request.
package service
