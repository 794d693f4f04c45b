package main

import "github.com/mselser95/claimpool/cmd"

func main() {
	cmd.Execute()
}
