// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - ContentStore: Content document persistence and body search
//   - AssetStore: Media asset persistence and location lookup
//   - IndexStore: Forward and reverse index persistence
//   - UsageStore: Usage scan record persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - AttributeStore, SettingsStore, UserAttributeStore: auxiliary stores
//     searched by the usage scanner. A nil store is skipped.
//   - Fetcher: Rendered document retrieval. Without it, content batches
//     report a per-item error.
//   - SchedulerStore: Scheduler state. Without it, tasks only run on demand
//     and no history is kept.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
