// Package chat runs conversation turns against a project's session memory.
//
// The Orchestrator resolves a project, appends the user's rendered message to
// its session, asks the completion service for a reply using the project
// summary and the most recent messages as context, appends the rendered reply
// and writes the whole buffer back to the transcript store. A turn that fails
// after mutating the session restores the session to its pre-turn state, so
// the session and the transcript agree after every turn.
//
// Flush checkpoints a session to the store and empties it. The next access
// hydrates the session again from the stored transcript.
package chat
