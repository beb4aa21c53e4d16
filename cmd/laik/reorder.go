package main

import (
	"fmt"
	"os"

	"github.com/neodyma/laik/pkg/reorder"
	"github.com/neodyma/laik/pkg/reporting"
	"github.com/spf13/cobra"
)

var reorderCmd = &cobra.Command{
	Use:   "reorder",
	Short: "Inspect and build reordering maps (spec §4.H)",
}

var reorderResolveCmd = &cobra.Command{
	Use:   "resolve",
	Args:  cobra.NoArgs,
	Short: "Print the reordering map the environment currently resolves to",
	Long: `Resolves LAIK_REORDERING/LAIK_REORDER_FILE against the real process
environment and prints the result, without applying it to a running
group. Refuses if LAIK_REORDER_LIVE is set, since that mode needs a live
CommMatrix and topology that only exist during an actual run.`,
	RunE: runReorderResolve,
}

var reorderWriteCmd = &cobra.Command{
	Use:   "write",
	Args:  cobra.NoArgs,
	Short: "Parse a literal LAIK_REORDERING-style map and write it to a binary file",
	RunE:  runReorderWrite,
}

var reorderShowCmd = &cobra.Command{
	Use:   "show",
	Args:  cobra.NoArgs,
	Short: "Print the mapping stored in a reordering binary file",
	RunE:  runReorderShow,
}

func init() {
	reorderResolveCmd.Flags().Int("ranks", 0, "group size")
	reorderResolveCmd.MarkFlagRequired("ranks")

	reorderWriteCmd.Flags().String("map", "", `literal map, e.g. "0.3,1.1,2.2,3.0"`)
	reorderWriteCmd.Flags().Int("ranks", 0, "group size")
	reorderWriteCmd.Flags().String("out", "", "output file path")
	reorderWriteCmd.MarkFlagRequired("map")
	reorderWriteCmd.MarkFlagRequired("ranks")
	reorderWriteCmd.MarkFlagRequired("out")

	reorderShowCmd.Flags().String("file", "", "reordering binary file path")
	reorderShowCmd.MarkFlagRequired("file")

	reorderCmd.AddCommand(reorderResolveCmd)
	reorderCmd.AddCommand(reorderWriteCmd)
	reorderCmd.AddCommand(reorderShowCmd)
}

func runReorderResolve(cmd *cobra.Command, args []string) error {
	ranks, _ := cmd.Flags().GetInt("ranks")
	if ranks < 1 {
		return fmt.Errorf("--ranks must be >= 1")
	}
	if _, ok := os.LookupEnv(reorder.EnvReorderLive); ok {
		return fmt.Errorf("%s is set, which needs a live CommMatrix and topology from an actual run; use `laik run` instead", reorder.EnvReorderLive)
	}

	mapping := reorder.Resolve(reorder.OSEnv{}, ranks, nil, nil)
	if mapping == nil {
		fmt.Println("identity (no reordering configured)")
		return nil
	}
	fmt.Print(reporting.FormatReordering(mapping))
	return nil
}

func runReorderWrite(cmd *cobra.Command, args []string) error {
	literal, _ := cmd.Flags().GetString("map")
	ranks, _ := cmd.Flags().GetInt("ranks")
	out, _ := cmd.Flags().GetString("out")
	if ranks < 1 {
		return fmt.Errorf("--ranks must be >= 1")
	}

	mapping, err := reorder.ParseLiteral(literal, ranks)
	if err != nil {
		return fmt.Errorf("parse map: %w", err)
	}

	if err := reorder.WriteFile(out, mapping); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	fmt.Printf("wrote reordering map to %s\n", out)
	return nil
}

func runReorderShow(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	mapping, err := reorder.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	fmt.Print(reporting.FormatReordering(mapping))
	return nil
}
