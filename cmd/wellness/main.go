// wellness serves, seeds and inspects wellness risk assessments.
//
// Usage:
//
//	wellness serve    [--http-addr=:8080] [--grpc-addr=:50051]
//	wellness seed     [--user=demo_ml_user] [--verify]
//	wellness classify [--reference | -f features.json] [--explain]
//	wellness watch    [--api-url=http://localhost:8080 | --grpc] [--user=<id>]
//	wellness inspect  [--user=<id>] [--last=N] [--assessment=<id>] [--json]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/wellness-risk/internal/classifier"
	"github.com/danielpatrickdp/wellness-risk/internal/store"
)

// version is set at build time via -ldflags.
var version = "dev"

// #region flags
var (
	dbPath           string
	classifierConfig string
	debug            bool
)

var rootCmd = &cobra.Command{
	Use:   "wellness",
	Short: "Wellness risk classifier, service and client",
	Long: "wellness scores behavioral, mood and sentiment features into a risk level\n" +
		"with interventions, serves the result over HTTP and gRPC, and polls it\n" +
		"from a terminal client.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dbPath, "db", envOr("WELLNESS_DB", "wellness.db"), "SQLite database path")
	pf.StringVar(&classifierConfig, "classifier-config", envOr("WELLNESS_CLASSIFIER_CONFIG", ""), "classifier YAML override (empty = embedded defaults)")
	pf.BoolVar(&debug, "debug", os.Getenv("WELLNESS_DEBUG") != "", "development logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.Version = version
}

// #endregion flags

// #region main
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// #endregion main

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newLogger() (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func openStore() (*store.Store, error) {
	st, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", dbPath, err)
	}
	return st, nil
}

func loadClassifier() (*classifier.Classifier, error) {
	cfg, err := classifier.LoadConfig(classifierConfig)
	if err != nil {
		return nil, err
	}
	return classifier.New(cfg)
}

// #endregion helpers
