package main

import "github.com/FrostIris6/pub-ledger/internal/command"

func main() {
	command.Execute()
}
