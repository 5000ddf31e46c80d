package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/star/satplot/internal/config"
	"github.com/star/satplot/internal/groundtrack"
	"github.com/star/satplot/internal/propagation"
	"github.com/star/satplot/internal/tle"
)

func main() {
	sat := flag.String("sat", "", "satellite name to sample (exact match)")
	n := flag.Int("n", 10, "number of subpoints to print")
	configPath := flag.String("config", "", "optional config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := config.Load(*configPath, logger)
	if err != nil {
		fmt.Println("ERROR loading config:", err)
		os.Exit(1)
	}

	loader := tle.NewLoader(tle.LoaderConfig{
		URL:      cfg.Catalog.URL,
		CacheDir: cfg.Catalog.CacheDir,
		MaxFiles: cfg.Catalog.MaxFiles,
	}, logger, nil)
	cat, err := loader.LoadCached()
	if err != nil {
		fmt.Println("ERROR reading TLE cache:", err)
		os.Exit(1)
	}

	epochs := cat.EpochRange()
	fmt.Printf("Loaded %d TLE entries (%d named) cached at %v\n", cat.Len(), len(cat.Names()), cat.FetchedAt().UTC().Format(time.RFC3339))
	fmt.Printf("Epoch range: %v .. %v\n", epochs.Min.Format(time.RFC3339), epochs.Max.Format(time.RFC3339))

	if *sat == "" {
		return
	}

	entry, err := cat.Lookup(*sat)
	if err != nil {
		fmt.Println("ERROR:", err)
		os.Exit(1)
	}
	fmt.Printf("%s (NORAD %d) epoch %v\n", entry.Name, entry.NORADID, entry.Epoch.Format(time.RFC3339))

	prop, err := propagation.NewSGP4Propagator(entry.Line1, entry.Line2, entry.NORADID, cfg.Propagation.Gravity)
	if err != nil {
		fmt.Println("ERROR:", err)
		os.Exit(1)
	}

	start := cfg.Start
	if start.IsZero() {
		start = time.Now().UTC()
	}
	grid, err := groundtrack.NewGrid(start, cfg.Horizon, cfg.Resolution)
	if err != nil {
		fmt.Println("ERROR:", err)
		os.Exit(1)
	}

	sampler := groundtrack.NewSampler(prop)
	for i := 0; i < *n && i < grid.Len(); i++ {
		sp, err := sampler.Subpoint(grid.At(i))
		if err != nil {
			fmt.Printf("  %5d: ERROR %v\n", i, err)
			os.Exit(1)
		}
		p := sp.Point()
		fmt.Printf("  %5d %s  lat %14s (%9.4f)  lon %15s (%10.4f)  alt %.1f km\n",
			i, sp.Time.Format(time.RFC3339Nano),
			sp.Latitude, p.Latitude, sp.Longitude, p.Longitude, sp.AltitudeKm)
	}
}
