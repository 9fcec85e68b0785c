package main

import "github.com/akeylesspro/nx-data-socket/cmd"

func main() {
	cmd.Execute()
}
