// Package cli implements the pedigree command-line interface.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pedigree/pkg/buildinfo"
	"github.com/matzehuels/pedigree/pkg/cache"
	"github.com/matzehuels/pedigree/pkg/config"
	"github.com/matzehuels/pedigree/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "pedigree"

	// defaultFile is the document used when neither --file nor --doc is given.
	defaultFile = "pedigree.json"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command output. Defaults to os.Stdout.
	Out io.Writer

	file       string
	docID      string
	configPath string
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Pedigree builds family trees and estimates genetic risk",
		Long: `Pedigree edits a family pedigree document, lays it out as a standard
pedigree chart and infers Mendelian carrier and affected risks for every
individual.

Every command works on one document: a JSON file (--file) or a document in
the configured store (--doc).`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(buildinfo.Template())
	root.SetOut(c.Out)

	flags := root.PersistentFlags()
	flags.StringVarP(&c.file, "file", "f", defaultFile, "pedigree document file")
	flags.StringVar(&c.docID, "doc", "", "document ID in the configured store (overrides --file)")
	flags.StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/pedigree/config.toml)")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable the layout and risk cache")

	// Editing
	root.AddCommand(c.newCommand())
	root.AddCommand(c.addCommand())
	root.AddCommand(c.noOffspringCommand())
	root.AddCommand(c.updateCommand())
	root.AddCommand(c.probandCommand())
	root.AddCommand(c.deleteCommand())
	root.AddCommand(c.setCommand())
	root.AddCommand(c.applyCommand())

	// Viewing
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.riskCommand())
	root.AddCommand(c.reportCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.browseCommand())

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// loadConfig reads --config, or the default config file if it exists.
func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.configPath)
}

// newRunner creates a pipeline runner over the configured cache.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config) (*pipeline.Runner, error) {
	if c.noCache {
		return pipeline.NewRunner(cache.NewNullCache(), nil, c.Logger), nil
	}
	ch, err := cfg.OpenCache(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ch, nil, c.Logger), nil
}
