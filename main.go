package main

import "http-sniffer/cmd"

func main() {
	cmd.Execute()
}
