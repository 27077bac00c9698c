// Package main is the entry point for the UniverseRPG server and its admin tooling.
// It only hands over to the command tree. NO business logic belongs here.
package main

import "github.com/MRamiBalles/UniverseRPG/server/cmd/universe/root"

func main() {
	root.Execute()
}
