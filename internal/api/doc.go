// Package api handles incoming HTTP requests: export submission, batch
// submission, job polling, the task-queue webhook, and artifact downloads.
// It translates HTTP concerns into calls on the internal services and maps
// internal errors to sanitized responses.
package api
