// ABOUTME: Root CLI command with global flags and subcommand registration
// ABOUTME: Entry point invoked from main via Execute
package commands

import (
	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
)

// NewRootCmd creates the root command with global flags
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clinrag",
		Short: "Clinical evidence retrieval and question answering",
		Long: `clinrag answers questions about clinical documents using hybrid
lexical and vector retrieval over an indexed corpus.

Every answer is grounded in retrieved passages with citations. Questions
the corpus cannot support are refused, and patient-facing sessions never
receive procedural or dosing detail.

Examples:
  clinrag ask --corpus corpus.json "How is the product stored?"
  clinrag index corpus.json
  clinrag eval --corpus corpus.json --dataset golden.json --output report.json`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format (auto, table, json)")

	cmd.AddCommand(NewAskCmd())
	cmd.AddCommand(NewIndexCmd())
	cmd.AddCommand(NewEvalCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
