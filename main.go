package main

import "github.com/adirahman/ceritakita-go/cmd"

func main() {
	cmd.Execute()
}
