package main

import (
	"log"
	"net/http"

	"github.com/svemotools/nobrakes/internal/svemopages"
)

func main() {
	site := svemopages.NewSite()

	log.Println("Mock site is running on http://localhost:6657")
	if err := http.ListenAndServe(":6657", site.Handler()); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
