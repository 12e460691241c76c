package main

import "github.com/leadsweep/leadsweep/cmd"

func main() {
	cmd.Execute()
}
