package main

import "github.com/theirongolddev/attain/cmd"

func main() {
	cmd.Execute()
}
