package main

import "github.com/christopherhenripage/odds-trader/cmd"

func main() {
	cmd.Execute()
}
