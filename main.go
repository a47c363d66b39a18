package main

import (
	"github.com/tempsentry/tempsentry/cmd"
)

func main() {
	cmd.Execute()
}
