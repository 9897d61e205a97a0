// Projectchat serves project chat pages backed by two-tier chat memory.
//
// Usage:
//
//	# Start the web server
//	projectchat serve
//
//	# Manage projects and chats against the local database
//	projectchat project create --id 1 --name Demo --summary "A demo"
//	projectchat chat send 1 "What is this project?"
//
//	# Talk to a running server
//	projectchat chat flush 1 --server http://127.0.0.1:5000
//	projectchat health --server http://127.0.0.1:5000
package main

import (
	"os"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
