package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/skillprobe/skillprobe/cmd"
)

func main() {
	// A .env file is a local convenience; deployments use real env vars.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
