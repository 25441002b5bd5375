// Package main hosts the shelver CLI entrypoint and command graph.
//
// The Cobra-based command tree covers running the daemon, querying its HTTP
// status endpoint, configuration scaffolding, and listing approved
// submitters. It centralizes configuration resolution so subcommands can
// focus on user experience; the heavy lifting lives in internal packages.
package main
