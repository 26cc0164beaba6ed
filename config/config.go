// Package config parses the command-line surface (spec §6.3): the
// PCI/ETH/SHM socket paths, synchronization mode, and the optional timing
// parameters, with an optional .env file supplying defaults for whichever
// optional parameters the positional arguments don't override.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nicbmcore/nicbm/transport"
)

// Config is the fully resolved set of parameters Start/transport.Init need,
// plus the monitor/record ambient knobs that are not part of spec.md's core
// contract but are still part of a complete CLI surface.
type Config struct {
	Params transport.Params

	Monitor     bool
	MonitorPort int
	OpenBrowser bool
	RecordPath  string
}

// defaults mirror nicbm.cc's runMain: max_step is owned by runtime, not
// config, since it is never configurable on the command line.
const (
	defaultSyncPeriod = 100 * 1000 // ps
	defaultPCILatency = 500 * 1000 // ps
	defaultEthLatency = 500 * 1000 // ps
)

// Parse builds a cobra command that validates argv against spec §6.3's
// corrected argc semantics (reject on fewer than 3 or more than 8
// positionals after argv[0], i.e. argc < 4 OR argc > 9 in the original's
// counting) and resolves params. envPath, if non-empty, is loaded with
// godotenv before flag/positional parsing so SYNC-PERIOD/PCI-LATENCY/
// ETH-LATENCY may default from a .env file; an explicit positional always
// overrides it.
func Parse(args []string, envPath string) (Config, error) {
	if envPath != "" {
		_ = godotenv.Load(envPath) // a missing .env is not an error
	}

	cfg := Config{
		Params: transport.Params{
			SyncMode:   transport.SyncModes,
			SyncPeriod: envUint("NICBM_SYNC_PERIOD", defaultSyncPeriod),
			PCILatency: envUint("NICBM_PCI_LATENCY", defaultPCILatency),
			EthLatency: envUint("NICBM_ETH_LATENCY", defaultEthLatency),
		},
	}

	cmd := &cobra.Command{
		Use:           "nicrun PCI-SOCKET ETH-SOCKET SHM [SYNC-MODE] [START-TICK] [SYNC-PERIOD] [PCI-LATENCY] [ETH-LATENCY]",
		Short:         "Run the behavioral NIC model harness.",
		Args:          cobra.RangeArgs(3, 8),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, positionals []string) error {
			return fillFromPositionals(&cfg, positionals)
		},
	}

	cmd.Flags().BoolVar(&cfg.Monitor, "monitor", false, "attach the HTTP introspection endpoint")
	cmd.Flags().IntVar(&cfg.MonitorPort, "monitor-port", 0, "HTTP introspection port (0 = random)")
	cmd.Flags().BoolVar(&cfg.OpenBrowser, "open-browser", false, "open the monitor page automatically")
	cmd.Flags().StringVar(&cfg.RecordPath, "record", "", "SQLite trace output path (empty disables recording)")

	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func fillFromPositionals(cfg *Config, args []string) error {
	cfg.Params.PCISocketPath = args[0]
	cfg.Params.EthSocketPath = args[1]
	cfg.Params.ShmPath = args[2]

	if len(args) >= 4 {
		mode, err := strconv.ParseInt(args[3], 0, 64)
		if err != nil {
			return fmt.Errorf("invalid SYNC-MODE %q: %w", args[3], err)
		}

		switch transport.SyncMode(mode) {
		case transport.SyncModes, transport.SyncBarrier:
			cfg.Params.SyncMode = transport.SyncMode(mode)
		default:
			return fmt.Errorf("invalid SYNC-MODE %d: must be SYNC_MODES(%d) or SYNC_BARRIER(%d)",
				mode, transport.SyncModes, transport.SyncBarrier)
		}
	}

	if len(args) >= 5 {
		tick, err := strconv.ParseUint(args[4], 0, 64)
		if err != nil {
			return fmt.Errorf("invalid START-TICK %q: %w", args[4], err)
		}

		cfg.Params.StartTick = tick
	}

	if len(args) >= 6 {
		v, err := strconv.ParseUint(args[5], 0, 64)
		if err != nil {
			return fmt.Errorf("invalid SYNC-PERIOD %q: %w", args[5], err)
		}

		cfg.Params.SyncPeriod = v * 1000
	}

	if len(args) >= 7 {
		v, err := strconv.ParseUint(args[6], 0, 64)
		if err != nil {
			return fmt.Errorf("invalid PCI-LATENCY %q: %w", args[6], err)
		}

		cfg.Params.PCILatency = v * 1000
	}

	if len(args) >= 8 {
		v, err := strconv.ParseUint(args[7], 0, 64)
		if err != nil {
			return fmt.Errorf("invalid ETH-LATENCY %q: %w", args[7], err)
		}

		cfg.Params.EthLatency = v * 1000
	}

	return nil
}

func envUint(key string, fallback uint64) uint64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fallback
	}

	return n
}
