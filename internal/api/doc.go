// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It acts as an adapter between external clients
// and the topic service, translating HTTP concerns to generation and
// learning operations.
package api
