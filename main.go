// Package main is the entry point for the cratecheck CLI.
package main

import "cratecheck.dev/pkg/cratecheck/cmd"

func main() {
	cmd.Execute()
}
