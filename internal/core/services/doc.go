// Package services implements the driving port interfaces.
// IngestService turns source files into indexed chunks; RetrieveService
// answers similarity queries against them. Services orchestrate calls
// to driven ports (parsers, embedding, stores) and hold no storage of
// their own.
package services
