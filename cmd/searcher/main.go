// Command searcher answers a query file against a built index.
//
// Usage:
//
//	searcher -d dictionary.dict -p postings.post -q queries.txt -o out.txt
//
// The query file carries the query on its first line and optional
// relevant-document IDs on the following lines. Optional flags install a
// thesaurus for query expansion and a YAML options file for the scorer.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/wizenheimer/lucent"
)

var (
	dictionaryPath string
	postingsPath   string
	queriesPath    string
	outputPath     string
	thesaurusPath  string
	optionsPath    string
)

var rootCmd = &cobra.Command{
	Use:           "searcher -d dictionary-file -p postings-file -q query-file -o output-file",
	Short:         "Answer a query file against a built index",
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := run(); err != nil {
			slog.Error("search failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&dictionaryPath, "dictionary", "d", "", "dictionary file")
	flags.StringVarP(&postingsPath, "postings", "p", "", "postings file")
	flags.StringVarP(&queriesPath, "queries", "q", "", "query file")
	flags.StringVarP(&outputPath, "output", "o", "", "output file")
	flags.StringVarP(&thesaurusPath, "thesaurus", "t", "", "thesaurus TSV for query expansion (optional)")
	flags.StringVarP(&optionsPath, "config", "c", "", "scorer options YAML (optional)")
	for _, name := range []string{"dictionary", "postings", "queries", "output"} {
		cobra.CheckErr(rootCmd.MarkFlagRequired(name))
	}
}

func run() error {
	engine, err := lucent.Open(dictionaryPath, postingsPath)
	if err != nil {
		return err
	}
	defer engine.Close()

	if optionsPath != "" {
		opts, err := lucent.LoadOptions(optionsPath)
		if err != nil {
			return err
		}
		engine.SetOptions(opts)
	}
	if thesaurusPath != "" {
		thesaurus, err := lucent.LoadThesaurus(thesaurusPath)
		if err != nil {
			return err
		}
		engine.SetThesaurus(thesaurus)
	}

	return engine.ProcessQueryFile(queriesPath, outputPath)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Only flag misuse reaches here; runtime failures exit inside Run.
		fmt.Fprintln(os.Stderr, err)
		_ = rootCmd.Usage()
		os.Exit(2)
	}
}
