// Package store persists home state between runs.
//
// Two backends implement Store:
//
//   - FileStore: data.json for users and devices, automation_rules.json
//     for rules. Both are checked against embedded JSON Schemas before
//     decoding, and written atomically.
//   - SQLiteStore: the tables created by the migrations package.
//
// A backend with nothing saved yet returns empty state and no error.
// Content that cannot be read back returns ErrMalformed.
package store
