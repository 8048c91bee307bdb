// Command harvest runs one harvest request from a JSON file and prints the
// resulting records to stdout, one JSON object per line. It needs no Kafka;
// only the request file, the bfg files it names, and the gridcell area
// weights file.
//
// Usage:
//
//	go run ./cmd/harvest \
//	  -request request.json \
//	  -weights data/gridcell-area.nc
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/geoscore/bfg-harvest/internal/domain"
	"github.com/geoscore/bfg-harvest/internal/harvester"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "harvest:", err)
		os.Exit(1)
	}
}

func run() error {
	requestPath := flag.String("request", "", "path to a harvest request JSON file")
	weightsPath := flag.String("weights", "", "path to the gridcell area weights file")
	dataDir := flag.String("data", "", "directory joined to relative bfg filenames")
	verbose := flag.Bool("v", false, "log progress to stderr")
	flag.Parse()

	if *requestPath == "" || *weightsPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -request, -weights")
	}

	data, err := os.ReadFile(*requestPath)
	if err != nil {
		return err
	}
	var req domain.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("decode %s: %w", *requestPath, err)
	}

	logOut := io.Discard
	if *verbose {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(logOut, nil))

	engine := harvester.New(harvester.NewWeightProvider(*weightsPath), *dataDir, logger)

	records, err := engine.Harvest(context.Background(), req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}
