// Package memory provides in-memory implementations of the driven ports.
// Every store is safe for concurrent use and loses its state with the
// process; they back the tests and the --memory mode of the CLI.
package memory
