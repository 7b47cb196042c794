package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/law-makers/parscrape/internal/reducer"
)

var (
	reduceBase string
	reduceJSON bool
)

var reduceCmd = &cobra.Command{
	Use:   "reduce [file|-]",
	Short: "Reduce saved HTML to links and visible text",
	Long: `Runs the HTML reducer over a local file (or stdin) without fetching
anything. Relative links are resolved against --base; without it they are
dropped.`,
	Example: `  # Reduce a saved page
  parscrape reduce page.html --base https://example.com/

  # From a pipe, as JSON
  curl -s https://example.com | parscrape reduce - --base https://example.com --print-json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReduce,
}

func init() {
	rootCmd.AddCommand(reduceCmd)

	reduceCmd.Flags().StringVar(&reduceBase, "base", "", "Base URL for resolving relative links")
	reduceCmd.Flags().BoolVar(&reduceJSON, "print-json", false, "Print the result as JSON")
}

func runReduce(cmd *cobra.Command, args []string) error {
	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	result := reducer.Reduce(string(raw), reduceBase)

	w := cmd.OutOrStdout()
	if reduceJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	for _, link := range result.Links {
		fmt.Fprintln(w, link)
	}
	if len(result.Links) > 0 {
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, result.Text)
	return nil
}
