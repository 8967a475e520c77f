// Package domain contains the core business entities of the service: topics,
// learning cards, and the structured image prompt carried by image cards.
// It has no knowledge of generation, storage, or transport.
package domain
