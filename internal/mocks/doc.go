// Package mocks holds hand-written test doubles shared across packages: a
// scripted model invoker, in-memory stores with a transactor, and stubs for
// the JWT and topic services. Each double exposes XxxFn fields to override
// behaviour and records the calls it receives.
package mocks
