package main

import (
	"errors"
	"io/fs"
	"log"

	"github.com/joho/godotenv"

	"freelance-tax/cmd"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: Could not load .env file: %v", err)
	}
	cmd.Execute()
}
