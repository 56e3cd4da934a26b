// Package domain defines core data models, error kinds and interfaces shared
// across stellarsplit. It contains plain types (wire/state) and contracts
// (interfaces) only; the concrete types live in the types and interfaces
// subpackages and are re-exported here for compact imports.
package domain
