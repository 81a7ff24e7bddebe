package main

import "github.com/ardnew/gd32vf103/cmd/gd32flash/cmd"

func main() {
	cmd.Execute()
}
