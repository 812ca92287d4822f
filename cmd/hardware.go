package cmd

import (
	"time"

	"github.com/smazurov/videocore/internal/sim"
	"github.com/smazurov/videocore/internal/video"
	"github.com/spf13/cobra"
)

// hardwareFlags are shared by subcommands that drive the simulator.
type hardwareFlags struct {
	profile string
	period  time.Duration
}

func (f *hardwareFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.profile, "sim-profile", "", "Simulated hardware profile (TOML); built-in profile when empty")
	cmd.Flags().DurationVar(&f.period, "frame-period", 0, "Override the simulated frame period")
}

func (f *hardwareFlags) open(opts *video.Options) (*sim.Hardware, error) {
	profile, err := sim.LoadProfile(f.profile)
	if err != nil {
		return nil, err
	}
	hw, err := sim.NewHardware(profile, opts)
	if err != nil {
		return nil, err
	}
	if f.period > 0 {
		hw.Engine.SetFramePeriod(f.period)
	}
	return hw, nil
}
