package main

import (
	"github.com/dbaldassi/nocturna-sub000/cmd"
	"github.com/dbaldassi/nocturna-sub000/internal/logging"
)

func main() {
	// Initialize logging
	logging.Init()
	cmd.Execute()
}
