// Package services wires the projectchat services together.
//
// Build opens the configured database, then creates the project registry,
// transcript store, session cache, completion provider and conversation
// orchestrator. The returned Registry hands them to the HTTP server and the
// CLI, and Close releases the database.
package services
