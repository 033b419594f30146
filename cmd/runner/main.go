package main

import (
	"os"
)

func main() {
	if err := Command().Execute(); err != nil {
		os.Exit(1)
	}
}
