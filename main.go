package main

import (
	"github.com/homemade/an2ea/cmd"
)

func main() {
	cmd.Execute()
}
