// Package file persists sourcemark settings as a TOML file, by default
// ~/.sourcemark/config.toml.
package file
