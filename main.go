package main

import (
	"log"

	"stock-dynamic/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatalf("stock-dynamic: %v", err)
	}
}
