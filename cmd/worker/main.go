package main

import (
	"log"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: worker flush-cache [-loop]")
	}

	switch os.Args[1] {
	case "flush-cache":
		RunFlushCache(os.Args[2:])
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
