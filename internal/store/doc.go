// Package store provides durable persistence for stellarsplit.
//
// Bills are kept as one JSON array under the fixed key "stellar_split_bills",
// and every write replaces the whole array. Two backends implement
// domain.BillRepository:
//   - FileBillRepository writes <dir>/stellar_split_bills.json atomically and
//     serialises read-modify-write cycles across processes with an advisory
//     file lock.
//   - SQLiteBillRepository stores the same JSON document in a key/value table
//     and runs each update inside a transaction.
//
// KeyFileStore holds the signing agent's secret seed encrypted under a
// passphrase (scrypt + ChaCha20-Poly1305).
package store
