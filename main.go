package main

import "github.com/andresmejia3/motility/cmd"

func main() {
	cmd.Execute()
}
