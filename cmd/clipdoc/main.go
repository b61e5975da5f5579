// Package main is the clipdoc command: the daemon that appends copied text
// to a Google Doc, and the client commands that drive it.
//
// Usage:
//
//	clipdoc serve
//	clipdoc set-doc https://docs.google.com/document/d/<id>/edit
//	clipdoc authorize
//
// See --help for all available commands.
package main

func main() {
	Execute()
}
