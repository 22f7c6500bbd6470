package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/rajarshidattapy/anymind-qd/capsuleservice"
)

func main() {
	// A local .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	if err := capsuleservice.Run(); err != nil {
		log.Error().Err(err).Msg("capsule-service exited with error")
		os.Exit(1)
	}
}
