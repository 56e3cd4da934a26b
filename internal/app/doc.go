// Package app wires application dependencies for the binaries.
//
// Config is layered: built-in defaults, then an optional YAML file, then a
// .env file, then STELLARSPLIT_* environment variables. Command-line flags
// are applied by the caller last. NewWire builds the repositories, clients
// and services from a Config and exposes them for commands to use.
package app
