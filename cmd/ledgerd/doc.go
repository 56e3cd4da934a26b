// Package main runs the in-memory ledger used by StellarSplit during
// development and tests. It speaks the Horizon-shaped subset of the ledger
// API that the stellarsplit CLI consumes.
//
// HTTP API
//
//	GET /accounts/{id}
//	    Return the account's sequence and native balance, or a 404 problem.
//
//	POST /transactions (form field "tx")
//	    Submit a signed payment envelope. Rejections are 400 problems whose
//	    extras.result_codes carry transaction and operation codes.
//
//	GET|POST /friendbot?addr={id}
//	    Create or top up an account with the configured amount.
//
//	GET /metrics
//	    Prometheus metrics.
//
//	GET /healthz
//	    Liveness probe.
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - Every request is access-logged at debug level.
//   - The default listen address is 127.0.0.1:8000.
package main
