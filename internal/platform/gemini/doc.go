// Package gemini connects the application to Google's Gemini API through the
// google.golang.org/genai client.
//
// Two adapters are provided:
//
//  1. Invoker implements generation.Invoker for the text passes and the JSON
//     repair call. Transient provider failures are retried with exponential
//     backoff and jitter; everything else surfaces as generation.ErrInvocation.
//
//  2. ImageRenderer synthesizes an image from a structured prompt for the
//     render worker. Quota rejections are reported with
//     generation.ErrRateLimited so the caller can decide to retry.
//
// Missing credentials are reported as generation.ErrConfig before any call
// is made.
package gemini
