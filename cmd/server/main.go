package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/dbaldassi/nocturna-sub000/internal/config"
	"github.com/dbaldassi/nocturna-sub000/internal/logging"
	"github.com/dbaldassi/nocturna-sub000/internal/relay"
	"github.com/dbaldassi/nocturna-sub000/internal/server"
)

func main() {
	logging.Init()

	cfg := config.LoadServer()
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// The relay's event loop owns all room state; run it before
	// accepting connections.
	r := relay.New()
	go r.Run()

	router := server.NewRouter(r)

	log.Printf("Starting signaling server on %s", cfg.Addr)
	log.Fatal(router.Run(cfg.Addr))
}
