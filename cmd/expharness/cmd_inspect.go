package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"expharness/internal/output"
)

var parseJSON bool

// parseCmd parses a saved program output, e.g. to check a new program build
// against the harness before starting a campaign.
var parseCmd = &cobra.Command{
	Use:   "parse FILE",
	Short: "Parse a captured program output and print the extracted record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(args[0])
		if err != nil {
			return err
		}
		rec := output.Parse(text)
		if parseJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		}
		printRecord(cmd.OutOrStdout(), rec)
		return nil
	},
}

// redactCmd prints a captured output the way the results log would show it.
var redactCmd = &cobra.Command{
	Use:   "redact FILE",
	Short: "Print a captured program output with the instance dump removed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(args[0])
		if err != nil {
			return err
		}
		_, err = io.WriteString(cmd.OutOrStdout(), output.Redact(text))
		return err
	},
}

func init() {
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "Print the record as JSON")
}

// readInput reads a file, or stdin for "-".
func readInput(name string) (string, error) {
	var (
		data []byte
		err  error
	)
	if name == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(data), nil
}

func printRecord(w io.Writer, rec *output.Record) {
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("seed:"), output.FormatInt64(rec.Seed))
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("universe size:"), output.FormatInt(rec.UniverseSize))
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("ground set size:"), output.FormatInt(rec.GroundSetSize))
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("candidate sets:"), output.FormatInt(rec.CandidateSetCount))
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("k:"), output.FormatInt(rec.K))

	if rec.Algorithms.Len() == 0 {
		fmt.Fprintln(w, warnStyle.Render("no algorithm results"))
	}
	for _, name := range rec.Algorithms.Names() {
		r, _ := rec.Algorithms.Get(name)
		fmt.Fprintf(w, "%s elapsed_ms=%s pareto_front_size=%s best_objective_ratio=%s\n",
			headerStyle.Render(name),
			output.FormatFloat(r.ElapsedMS),
			output.FormatInt(r.ParetoFrontSize),
			output.FormatFloat(r.BestObjectiveRatio))
	}

	if rec.InstanceSets != nil {
		keys := make([]string, 0, len(rec.InstanceSets))
		for k := range rec.InstanceSets {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(w, labelStyle.Render("instance sets:"))
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %s\n", k, rec.InstanceSets[k])
		}
	}
}
