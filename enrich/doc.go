// Package enrich orchestrates schema-driven enrichment runs.
//
// The Engine type drives the workflow for each configured task:
//   - Resolving the task into a query, a normalized schema, and a storage target
//   - Provisioning destination tables or columns before any dispatch
//   - Expanding selected rows into (document, model) pairs
//   - Generating, validating, and persisting each pair concurrently
//
// Pairs are processed on a worker pool and are isolated from each other: a
// pair that exhausts its retries is recorded as a failed attempt in the
// audit trail and never blocks its neighbors. A run only fails outright on
// a storage error or when every pair of a task fails.
package enrich
