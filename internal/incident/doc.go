// Package incident provides the business boundary for Callpoint's call-intake
// pipeline. It defines the Service (submission, async analysis dispatch,
// confirmation), the Store interface (keyed persistence with per-record
// versions), the merge semantics shared by server and console, and the domain
// models.
package incident
