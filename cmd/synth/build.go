package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/json-to-terraform/constructs/internal/app"
	"github.com/json-to-terraform/constructs/internal/logger"
	"github.com/json-to-terraform/constructs/internal/manifest"
	"github.com/json-to-terraform/constructs/internal/property"
	"github.com/json-to-terraform/constructs/internal/render"
	"github.com/json-to-terraform/constructs/internal/result"
	"github.com/json-to-terraform/constructs/internal/synth"
)

// errSynthesisFailed is returned after the diagnostics have been printed.
var errSynthesisFailed = errors.New("synthesis failed")

// NewBuildCmd creates the build subcommand.
func NewBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <manifest|->",
		Short: "Synthesize a manifest and write the rendered templates",
		Args:  cobra.ExactArgs(1),
		RunE:  runBuild,
	}
	f := cmd.Flags()
	f.StringP("output", "o", "output", "output directory for rendered files")
	f.StringSlice("format", []string{string(render.JSON)}, "formats to render: json, yaml, hcl")
	f.String("separator", synth.DefaultSeparator, "separator joining construct ids into logical ids")
	f.String("index-policy", property.Reject.String(), "writes past the end of a sequence: reject or pad")
	f.Bool("json", false, "print errors and warnings as JSON")
	f.String("log-level", "info", "log level: debug, info, warn, error")
	f.String("log-format", logger.FormatText, "log format: text or json")
	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	log := logger.New(cmd.ErrOrStderr(), level, cfg.Log.Format)

	opts := app.DefaultOptions()
	opts.Logger = log
	opts.Separator = cfg.Separator
	if opts.IndexPolicy, err = property.ParseIndexPolicy(cfg.IndexPolicy); err != nil {
		return err
	}
	if opts.Formats, err = render.ParseFormats(cfg.Formats); err != nil {
		return err
	}

	m, err := readManifest(cmd.InOrStdin(), args[0])
	if err != nil {
		logger.LogError(log, "read manifest", err)
		return err
	}
	res, err := app.New(opts).Synthesize(m)
	if err != nil {
		logger.LogError(log, "synthesize", err)
		return err
	}

	if cfg.JSONErrors && (!res.Success || len(res.Warnings) > 0) {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		printDiagnostics(cmd.ErrOrStderr(), res)
	}
	if !res.Success {
		return errSynthesisFailed
	}

	if err := os.MkdirAll(cfg.Output, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	names := make([]string, 0, len(res.Files))
	for name := range res.Files {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		path := filepath.Join(cfg.Output, name)
		if err := os.WriteFile(path, res.Files[name], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		cmd.Println("wrote", path)
	}
	return nil
}

func readManifest(stdin io.Reader, input string) (*manifest.Manifest, error) {
	if input != "-" {
		return manifest.ParseFile(input)
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return manifest.Parse(data)
}

func printDiagnostics(w io.Writer, res *result.SynthResult) {
	for _, e := range res.Errors {
		fmt.Fprintf(w, "ERROR [%s] %s\n", e.Path, e.Message)
		if e.Suggestion != "" {
			fmt.Fprintf(w, "  suggestion: %s\n", e.Suggestion)
		}
	}
	for _, wr := range res.Warnings {
		fmt.Fprintf(w, "WARN [%s] %s\n", wr.Path, wr.Message)
	}
}
