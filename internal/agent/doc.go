// Package agent is the HTTP client for the user's signing agent.
//
// The agent holds the secret key and asks the user before granting access
// or signing. Every call is single-shot: nothing is retried here, and a
// response carrying a non-empty "error" field is a failure whatever its HTTP
// status. The "error" field may be a plain string or an object with a code
// and a message.
//
// Availability is decided by Probe. An agent that answers at all but has not
// authorised this application is still available; only an unreachable agent,
// or one reporting that it is not installed, is unavailable.
package agent
