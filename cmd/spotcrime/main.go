package main

import cmd "github.com/rohmanhakim/spotcrime/internal/cli"

func main() {
	cmd.Execute()
}
