// Package commands defines the stellarsplit CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - bill create    Split a total between participants and save the bill
//   - bill list      List saved bills, newest first
//   - bill show      Print one bill with each participant's share
//   - bill delete    Remove a bill
//   - pay            Pay a participant's share from the connected wallet
//   - wallet connect Connect to the signing agent and print the identity
//   - wallet balance Print the connected wallet's native balance
//   - wallet watch   Stream session snapshots until interrupted
//   - wallet fund    Ask the ledger's friendbot to fund an address
//
// # Implementation
//
// The root command loads configuration (file, .env, environment, flags) and
// builds the dependency graph (bill repository, ledger client, agent bridge,
// services) before any subcommand runs. The graph is closed after the
// subcommand returns.
package commands
