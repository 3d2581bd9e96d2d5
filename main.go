package main

import "github.com/Yates-Labs/bayan/cmd"

func main() {
	cmd.Execute()
}
