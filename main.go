package main

import "github.com/pders01/pyfinder/cmd"

func main() {
	cmd.Execute()
}
