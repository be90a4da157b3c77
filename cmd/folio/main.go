package main

import "github.com/emrgen/folio/cmd"

func main() {
	cmd.Execute()
}
