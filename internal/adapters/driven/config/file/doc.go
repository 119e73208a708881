// Package file implements the ConfigStore port over a TOML file in the
// user's tutorkit directory. The file selects the embedding provider,
// the vector backend, chunker sizes and the classifier's keyword rules.
package file
