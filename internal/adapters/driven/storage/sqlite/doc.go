// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. It implements every store interface through a single database connection:
//
//   - AssetStore: Media assets and their attribution fields
//   - ContentStore: Content documents
//   - AttributeStore, UserAttributeStore, SettingsStore: JSON key/value tables
//     searched by the usage scanner
//   - IndexStore: The forward and reverse content index
//   - UsageStore: Usage scan records
//   - SchedulerStore: Scheduled tasks and their run history
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each applied version is recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.sourcemark/data/sourcemark.db
//
// # Thread Safety
//
// All operations are thread-safe. Multi-row writes run in a transaction, and
// the store relies on database-level locking provided by SQLite in WAL mode.
package sqlite
