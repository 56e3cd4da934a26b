// Package payment executes a single participant payment: build, sign,
// submit. It never retries and never touches bill state; committing a
// successful payment is the caller's job.
package payment
