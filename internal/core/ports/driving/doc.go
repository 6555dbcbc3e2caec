// Package driving declares the operations the CLI, HTTP API, MCP server and
// file watcher call on the core: asset and content management, index
// queries, overlay injection, usage scans and the task scheduler.
//
// internal/core/services implements every interface here.
package driving
