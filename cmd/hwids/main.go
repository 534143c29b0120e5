package main

import "hwids/internal/cli"

func main() {
	cli.Execute()
}
