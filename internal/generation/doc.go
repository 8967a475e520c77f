// Package generation turns raw text into an ordered list of learning cards.
//
// A run selects a target count N, extracts exactly N concepts (pass 1), and
// designs exactly N cards from them (pass 2). Each pass is an ordered list of
// strategies, a primary request followed by one corrective request that
// re-supplies the faulty draft, and fails closed when both are exhausted.
// Model output is recovered with a bracket-span extractor that falls back to
// a single JSON repair call. The deterministic guardrails in package
// guardrail then repair the result before it is returned.
//
// The package talks to the model only through the Invoker interface; the
// Gemini implementation lives in internal/platform/gemini.
package generation
