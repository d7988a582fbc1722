// Package main is the entry point for the resolverank CLI.
package main

import (
	"github.com/resolverank/resolverank/cmd/resolverank/commands"
)

func main() {
	commands.Execute()
}
