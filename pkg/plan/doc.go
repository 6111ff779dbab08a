// Package plan defines the subscription plan catalog: plan tiers with
// per-resource limits and feature modules, plus purchasable quota add-ons.
//
// The catalog is static-ish configuration. It is loaded through a Source
// (in-memory for tests, YAML file for deployments) and read-only to the
// subscription engine; a limit of -1 means unlimited.
package plan
