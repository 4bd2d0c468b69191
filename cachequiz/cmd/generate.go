package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sarchlab/cachequiz/cache/trace"
	"github.com/sarchlab/cachequiz/datarecording"
	"github.com/sarchlab/cachequiz/display"
	"github.com/sarchlab/cachequiz/scenario"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a scenario and print its ground truth as JSON.",
	Long: "`generate` builds a scenario from a JSON configuration file " +
		"(--config) and the geometry flags, which override the file. With " +
		"--addresses the given addresses are replayed; otherwise " +
		"--num-addr accesses are generated.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := configFromFlags(cmd.Flags())
		if err != nil {
			return err
		}

		b := scenario.MakeBuilder().WithConfig(cfg)

		name, _ := cmd.Flags().GetString("name")
		b = b.WithName(name)

		if verbose, _ := cmd.Flags().GetBool("trace"); verbose {
			b = b.WithHook(trace.NewLogTracer(log.New(os.Stderr, "", 0)))
		}

		recorder := recorderFromFlags(cmd.Flags())
		if recorder != nil {
			b = b.WithHook(trace.NewDBTracer(recorder))
		}

		s, err := b.Build()
		if err != nil {
			return err
		}

		if recorder != nil {
			recorder.Flush()
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			return printJSON(cmd, s.Export())
		}

		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()

		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")

		return enc.Encode(s.Export())
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	addScenarioFlags(generateCmd.Flags())
	generateCmd.Flags().String("out", "", "Write the JSON here instead of stdout")
}

func addScenarioFlags(f *pflag.FlagSet) {
	f.String("config", "", "JSON configuration file")
	f.Int("ways", 2, "Associativity")
	f.Int("set-bits", 1, "Width of the index field")
	f.Int("block-bits", 1, "Width of the offset field")
	f.Int("addr-bits", 5, "Address width; memory holds 2^addr-bits bytes")
	f.String("base", "hex", "Base of addresses and tags: hex or bin")
	f.String("fill", "full", "Initial fill: full, empty or partial")
	f.Bool("show-valid", false, "Show valid bits to the learner")
	f.Bool("show-dirty", false, "Show dirty bits to the learner")
	f.Int("num-addr", 1, "Number of generated accesses")
	f.Int("min-hits", 0, "Minimum number of generated hits")
	f.Int("min-misses", 0, "Minimum number of generated misses")
	f.String("addresses", "",
		"Comma-separated addresses to replay, decimal or 0x/0b prefixed")
	f.Int64("seed", 0, "Random seed; 0 derives one from the clock "+
		"(default from "+envSeed+")")
	f.String("name", "", "Scenario ID; generated when empty")
	f.Bool("trace", false, "Log every access to stderr")
	f.String("record", "", "Record accesses into this SQLite database, "+
		"without the .sqlite3 suffix (default from "+envRecord+")")
}

// configFromFlags starts from the default configuration, applies the
// configuration file, and then every flag set on the command line.
func configFromFlags(f *pflag.FlagSet) (scenario.Config, error) {
	cfg := scenario.DefaultConfig()

	if path, _ := f.GetString("config"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}

		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}

	var err error

	f.Visit(func(flag *pflag.Flag) {
		if err == nil {
			err = applyFlag(&cfg, f, flag.Name)
		}
	})

	if err != nil {
		return cfg, err
	}

	if !f.Changed("seed") && cfg.Seed == 0 {
		cfg.Seed = envInt(envSeed, 0)
	}

	return cfg, nil
}

func applyFlag(cfg *scenario.Config, f *pflag.FlagSet, name string) error {
	var err error

	switch name {
	case "ways":
		cfg.Ways, err = f.GetInt(name)
	case "set-bits":
		cfg.SetBits, err = f.GetInt(name)
	case "block-bits":
		cfg.BlockBits, err = f.GetInt(name)
	case "addr-bits":
		cfg.AddrBits, err = f.GetInt(name)
	case "base":
		v, _ := f.GetString(name)
		cfg.Base, err = display.ParseBase(v)
	case "fill":
		v, _ := f.GetString(name)
		cfg.Fill, err = scenario.ParseFillPolicy(v)
	case "show-valid":
		cfg.ShowValid, err = f.GetBool(name)
	case "show-dirty":
		cfg.ShowDirty, err = f.GetBool(name)
	case "num-addr":
		cfg.NumAddr, err = f.GetInt(name)
	case "min-hits":
		cfg.MinHits, err = f.GetInt(name)
	case "min-misses":
		cfg.MinMisses, err = f.GetInt(name)
	case "addresses":
		v, _ := f.GetString(name)
		cfg.Addresses, err = parseAddresses(v)
	case "seed":
		cfg.Seed, err = f.GetInt64(name)
	}

	return err
}

// parseAddresses parses a comma-separated list. Each address may be decimal
// or carry a 0x, 0b or 0o prefix.
func parseAddresses(s string) ([]uint64, error) {
	var addresses []uint64

	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}

		a, err := strconv.ParseUint(field, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("address %q: %w", field, err)
		}

		addresses = append(addresses, a)
	}

	return addresses, nil
}

func recorderFromFlags(f *pflag.FlagSet) datarecording.DataRecorder {
	path, _ := f.GetString("record")
	if path == "" {
		path = os.Getenv(envRecord)
	}

	if path == "" {
		return nil
	}

	return datarecording.New(path)
}
