// Package services implements the driving port interfaces.
// Services contain the core business logic of the retrieval-augmentation
// pipeline and orchestrate calls to driven ports (adapters).
//
// Services are pure Go with no external dependencies beyond the ports.
package services
