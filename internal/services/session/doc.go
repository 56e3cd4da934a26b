// Package session owns the connection to the user's signing agent.
//
// A Service moves through Disconnected, Connecting and Connected. Connect
// runs the handshake (probe, authorise, read identity, check network) under
// a hard timeout; concurrent callers share one attempt. A handshake that
// finishes after its timeout, or after Disconnect, is discarded.
//
// While connected the service keeps the account's native balance fresh with
// a periodic refresher that stops on Disconnect. Balance failures never
// change the connection state.
package session
