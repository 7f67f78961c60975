package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/oh2fk/pskprop/internal/band"
	"github.com/oh2fk/pskprop/internal/broker"
)

// spotgen publishes randomized propagation reports to the same subjects the
// daemon subscribes to, for local testing without a live feed.

var grids = []string{
	"KP20ab", "KP21ce", "JO99ab", "JP90xc", "KO29dx",
	"JO62qm", "IO91wm", "FN31pr", "EM12ab", "PM95tq",
}

var callsigns = []string{
	"OH2AAA", "OH6BBB", "SM0CCC", "ES1DDD", "LA9EEE",
	"DL1FFF", "G4GGG", "W1HHH", "K5III", "JA1JJJ",
}

func main() {
	natsURL := flag.String("nats", "nats://localhost:4222", "NATS server URL")
	bandsFlag := flag.String("bands", "20m,40m", "comma-separated bands to publish on")
	interval := flag.Duration("interval", 500*time.Millisecond, "delay between reports")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	var bands []string
	for _, name := range strings.Split(*bandsFlag, ",") {
		name = strings.TrimSpace(name)
		if !band.IsValid(name) {
			logger.Error("unknown band", "band", name)
			os.Exit(1)
		}
		bands = append(bands, name)
	}

	client, err := broker.New(*natsURL, logger)
	if err != nil {
		logger.Error("failed to connect", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("publishing synthetic spots", "bands", bands, "interval", *interval)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	published := 0
	for {
		select {
		case <-ctx.Done():
			logger.Info("done", "published", published)
			return
		case <-ticker.C:
			name := bands[rand.Intn(len(bands))]
			payload, err := json.Marshal(randomReport(name))
			if err != nil {
				logger.Error("failed to marshal report", "error", err)
				continue
			}
			if err := client.Publish(broker.Subject(name), payload); err != nil {
				logger.Warn("publish failed", "error", err)
				continue
			}
			published++
		}
	}
}

func randomReport(bandName string) map[string]any {
	var freq int64
	for _, b := range band.All {
		if b.Name == bandName {
			freq = b.LoHz + rand.Int63n(b.HiHz-b.LoHz)
			break
		}
	}

	sender := rand.Intn(len(callsigns))
	receiver := (sender + 1 + rand.Intn(len(callsigns)-1)) % len(callsigns)

	return map[string]any{
		"senderCallsign":   callsigns[sender],
		"senderLocator":    grids[rand.Intn(len(grids))],
		"receiverCallsign": callsigns[receiver],
		"receiverLocator":  grids[rand.Intn(len(grids))],
		"frequency":        freq,
		"sNR":              rand.Intn(40) - 30,
		"flowStartSeconds": time.Now().UTC().Unix(),
	}
}
