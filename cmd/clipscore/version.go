package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/clipscore/internal/domain/scoring"
	"github.com/okian/clipscore/internal/report"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type versionInfo struct {
	Build    string   `json:"build"`
	Scorer   string   `json:"scorer"`
	Active   string   `json:"active_profile"`
	Profiles []string `json:"profiles"`
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build, scorer and weight profile versions",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			info := versionInfo{
				Build:  version,
				Scorer: scoring.Version,
				Active: c.engine.Profile().Version,
			}
			for _, p := range scoring.Profiles() {
				info.Profiles = append(info.Profiles, p.Version)
			}
			return report.WriteJSONLine(c.out, info)
		},
	}
}
