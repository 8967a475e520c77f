// Package guardrail holds the deterministic, generation-free passes that run
// after both model passes have succeeded. Every pass is total: it always
// returns a deliverable card list, falling back to synthesized content where
// the model output is unusable.
//
// The passes, in the order the pipeline applies them:
//   - ConstraintEnforcer: type-mix invariants and field nulling
//   - ImagePromptGuardrail: label limits and structured prompt shape
//   - HookGuardrail: statement-form hooks on image cards
package guardrail
