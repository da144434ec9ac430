// Package main provides the entry point for rv32pipe, a cycle-accurate
// 5-stage in-order RV32IM pipeline simulator.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/rv32pipe/emu"
	"github.com/sarchlab/rv32pipe/loader"
	"github.com/sarchlab/rv32pipe/timing/config"
	"github.com/sarchlab/rv32pipe/timing/pipeline"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rv32pipe",
		Short: "rv32pipe — a cycle-accurate 5-stage in-order RV32IM pipeline simulator",
	}
	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var (
		dmemPath   string
		unified    bool
		dataBase   uint32
		cycleLimit uint64
		configPath string
		trace      bool
	)

	cmd := &cobra.Command{
		Use:   "run <image> [dmem-image]",
		Short: "Load a hex memory image and run it to completion or a cycle cap",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(configPath)
			if err != nil {
				return err
			}
			if cycleLimit > 0 {
				cfg.CycleCap = cycleLimit
			}
			if dataBase > 0 {
				cfg.DataBaseWordAddr = dataBase
			}
			cfg.Trace = cfg.Trace || trace
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			imagePath := args[0]
			if len(args) == 2 {
				dmemPath = args[1]
			}

			words, err := loadImage(imagePath, dmemPath, unified, cfg.DataBaseWordAddr)
			if err != nil {
				return fmt.Errorf("failed to load memory image: %w", err)
			}

			regs := emu.NewRegFile(cfg.MemDepthLog)
			mem := emu.NewMemory(cfg.MemDepthLog)
			if err := mem.LoadImage(words); err != nil {
				return fmt.Errorf("failed to load memory image: %w", err)
			}

			pipe := pipeline.NewPipeline(regs, mem, cfg, os.Stdin, os.Stdout,
				pipeline.WithLogWriter(os.Stderr),
				pipeline.WithTrace(cfg.Trace))

			result := pipe.Run(cfg.CycleCap)
			stats := pipe.Stats()

			fmt.Printf("cycles=%d instructions=%d cpi=%.3f stalls=%d branches=%d flushes=%d\n",
				stats.Cycles, stats.Instructions, stats.CPI, stats.Stalls, stats.Branches, stats.Flushes)

			if result.Timeout {
				return fmt.Errorf("cycle cap of %d reached without a halt", cfg.CycleCap)
			}

			fmt.Printf("exit code: %d\n", result.ExitCode)
			os.Exit(int(result.ExitCode))
			return nil
		},
	}

	cmd.Flags().BoolVar(&unified, "unified", false, "treat the single image argument as a combined instruction+data image")
	cmd.Flags().Uint32Var(&dataBase, "data-base", 0, "word address the data image is merged in at (0 = use the config default)")
	cmd.Flags().Uint64Var(&cycleLimit, "cycle-limit", 0, "override the configured cycle cap (0 = use the config/default value)")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a SimConfig JSON file (defaults to config.DefaultSimConfig())")
	cmd.Flags().BoolVar(&trace, "trace", false, "enable per-cycle writeback/halt tracing on the log channel")

	return cmd
}

func resolveConfig(configPath string) (*config.SimConfig, error) {
	if configPath == "" {
		return config.DefaultSimConfig(), nil
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %q: %w", configPath, err)
	}
	return cfg, nil
}

func loadImage(imagePath, dmemPath string, unified bool, dataBase uint32) ([]uint32, error) {
	if unified {
		if dmemPath != "" {
			return nil, fmt.Errorf("--unified does not take a second image argument")
		}
		return loader.LoadUnified(imagePath)
	}
	return loader.LoadSplit(imagePath, dmemPath, dataBase)
}
