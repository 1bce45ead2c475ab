package main

import "go-arp/cmd"

func main() {
	cmd.Execute()
}
