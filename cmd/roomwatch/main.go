package main

import (
	"log"

	"github.com/MrSnakeDoc/roomwatch/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ roomwatch failed: %v", err)
	}
}
