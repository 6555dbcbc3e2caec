// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Every service takes its settings at construction; nothing reads
// process-wide state. Extension points live in Hooks.
package services
