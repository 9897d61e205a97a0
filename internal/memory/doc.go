// Package memory implements two-tier chat memory for projects.
//
// The session tier is a process-wide Cache holding, per project, a bounded
// buffer of recent messages. The buffer is hydrated from the durable tier on
// first access and trimmed oldest-first by a Policy.
//
// The durable tier is a Store holding one serialized transcript per project.
// A Codec turns a message slice into that transcript and back. The default
// LineCodec writes one "sender|content" line per message; content must not
// contain newlines. JSONLCodec writes one JSON object per line and has no
// such restriction.
//
// Sessions are locked per project. Acquire returns a locked Session; the
// caller mutates it, persists it, and calls Release. Different projects
// never contend.
package memory
