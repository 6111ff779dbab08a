// Package mongo provides the document-store plumbing: an env-configured
// client constructor with connection retry, a healthcheck probe, and a
// Transactor that runs multi-document writes atomically.
package mongo
