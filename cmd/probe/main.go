package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/DevSkits916/campaign-autopilot/internal/automation"
	"github.com/DevSkits916/campaign-autopilot/internal/config"
	"github.com/DevSkits916/campaign-autopilot/internal/probe"
)

// Probe checks the configured target page against the selector
// profile and prints the resolution report as JSON. Exit code 0 means
// every configured step resolved; 1 means at least one did not, which
// usually means the platform changed its markup.

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()

	profiles := map[string]automation.Profile{}
	if cfg.SelectorProfiles != "" {
		loaded, err := automation.LoadProfiles(cfg.SelectorProfiles)
		if err != nil {
			log.Fatal("failed to load selector profiles", zap.Error(err))
		}
		profiles = loaded
	}

	prober := probe.NewProber(cfg.ProbeTimeoutMS, cfg.ProbeMaxRetries, log)
	profile := automation.ProfileFor(cfg.Platform, profiles)

	report, err := prober.Check(context.Background(), cfg.BaseURL, cfg.Platform, profile)
	if err != nil {
		log.Fatal("probe failed", zap.Error(err))
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatal("failed to encode report", zap.Error(err))
	}
	fmt.Println(string(out))

	if report.Resolved < report.Total {
		os.Exit(1)
	}
}
