// Command indexer builds the dictionary and postings files from a corpus
// CSV.
//
// Usage:
//
//	indexer -i corpus.csv -d dictionary.dict -p postings.post
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/wizenheimer/lucent"
)

var (
	inputPath      string
	dictionaryPath string
	postingsPath   string
)

var rootCmd = &cobra.Command{
	Use:           "indexer -i input.csv -d dictionary-file -p postings-file",
	Short:         "Build the on-disk index from a corpus CSV",
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := run(); err != nil {
			slog.Error("indexing failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&inputPath, "input", "i", "", "corpus CSV: [doc_id, _, content, ...]")
	flags.StringVarP(&dictionaryPath, "dictionary", "d", "", "output dictionary file")
	flags.StringVarP(&postingsPath, "postings", "p", "", "output postings file")
	for _, name := range []string{"input", "dictionary", "postings"} {
		cobra.CheckErr(rootCmd.MarkFlagRequired(name))
	}
}

func run() error {
	source, err := lucent.OpenCSVSource(inputPath)
	if err != nil {
		return err
	}
	defer source.Close()

	index, err := lucent.BuildIndex(source, lucent.NewNormalizer())
	if err != nil {
		return err
	}
	return index.WriteTo(dictionaryPath, postingsPath)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Only flag misuse reaches here; runtime failures exit inside Run.
		fmt.Fprintln(os.Stderr, err)
		_ = rootCmd.Usage()
		os.Exit(2)
	}
}
