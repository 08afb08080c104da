package main

import (
	"log"

	"github.com/aranyasourav/triggerhub/internal/api"
)

func main() {
	srv := api.NewServer()
	if err := srv.Serve(); err != nil {
		log.Fatalf("admin server stopped: %v", err)
	}
}
