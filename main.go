package main

import (
	"stakeduel/cmd"
)

func main() {
	cmd.Execute()
}
