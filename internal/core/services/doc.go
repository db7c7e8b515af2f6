// Package services implements the driving port interfaces.
// Services contain the pipeline logic and orchestrate calls to driven
// ports (adapters).
//
// Services are pure Go: they import the domain, the ports and
// golang.org/x/sync, never an adapter.
package services
