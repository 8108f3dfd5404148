package main

import (
	"log"

	"github.com/sjzar/sentry-slack/cmd/sentryslack"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	sentryslack.Execute()
}
