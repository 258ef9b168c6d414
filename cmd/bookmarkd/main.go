package main

import (
	"log"

	"github.com/MrSnakeDoc/bookmarkd/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ bookmarkd failed: %v", err)
	}
}
