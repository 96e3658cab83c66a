package relay

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
)

// Room ids are built from three themed words (e.g. "dusk-lantern-hollow")
// so players can read a code aloud instead of copying a hash.

var nightWords = []string{
	"dusk", "twilight", "midnight", "moonlit", "starlit", "shadow", "ember", "ashen",
	"silver", "violet", "indigo", "pale", "silent", "hollow", "drifting", "wandering",
	"gloaming", "nocturne", "eclipse", "aurora", "nebula", "comet", "umbra", "vesper",
}

var creatureWords = []string{
	"owl", "moth", "raven", "lynx", "wolf", "bat", "fox", "hare",
	"wisp", "specter", "golem", "gargoyle", "sprite", "wraith", "imp", "sentinel",
	"firefly", "cricket", "heron", "badger", "stoat", "viper", "newt", "toad",
}

var placeWords = []string{
	"tower", "bridge", "lantern", "rooftop", "garden", "cavern", "spire", "grotto",
	"causeway", "rampart", "belfry", "terrace", "cloister", "stairwell", "archway", "parapet",
	"harbor", "orchard", "quarry", "mill", "chapel", "gallery", "cellar", "attic",
}

// randomIndex returns a cryptographically secure random index below max.
func randomIndex(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		// crypto/rand only fails if the OS entropy source is broken.
		slog.Error("random index generation failed", "err", err)
		panic(err)
	}
	return int(n.Int64())
}

func randomRoomID() string {
	return fmt.Sprintf("%s-%s-%s",
		nightWords[randomIndex(len(nightWords))],
		creatureWords[randomIndex(len(creatureWords))],
		placeWords[randomIndex(len(placeWords))],
	)
}
