package main

import "github.com/dszqbsm/noveldl/cmd"

func main() {
	cmd.Execute()
}
