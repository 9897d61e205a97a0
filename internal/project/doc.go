// Package project provides the project registry for projectchat.
//
// A project carries the metadata a chat is grounded on:
//   - ID, unique and chosen by the caller (a UUID is generated when empty)
//   - Name, shown in the project list
//   - Summary, embedded in every completion prompt
//   - UserID, the owner copied onto the project's durable transcript
//
// Projects are created once and read thereafter. The Registry interface has
// an in-memory implementation for tests and ephemeral runs, and a SQLite
// implementation for durable deployments.
package project
