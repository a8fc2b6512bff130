package main

import (
	"fmt"
	"os"
)

func main() {
	defer fmt.Println("bye")

	if len(os.Args) > 2 {
		fail()
	}
}

func fail() {
	os.Exit(1)
}
