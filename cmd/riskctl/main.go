package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/synaptica-ai/riskengine/pkg/assessment"
	"github.com/synaptica-ai/riskengine/pkg/clinical"
	"github.com/synaptica-ai/riskengine/pkg/common/config"
	"github.com/synaptica-ai/riskengine/pkg/common/logger"
	"github.com/synaptica-ai/riskengine/pkg/extraction"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "riskctl",
		Short:         "Offline clinical risk assessment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(assessCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func extractCmd() *cobra.Command {
	var patternsPath string
	cmd := &cobra.Command{
		Use:   "extract [report.txt]",
		Short: "Print the values found in a report's text layer",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			initLogger()
			table, err := extraction.LoadPatterns(patternsPath)
			if err != nil {
				return err
			}
			ex, err := extraction.New(table)
			if err != nil {
				return err
			}
			r, closeFn, err := openInput(args)
			if err != nil {
				return err
			}
			defer closeFn()

			doc := ex.ExtractDocument(r)
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"values": doc.Values,
				"name":   doc.Name,
				"sex":    doc.Sex,
			})
		},
	}
	cmd.Flags().StringVar(&patternsPath, "patterns", os.Getenv("EXTRACTION_PATTERNS_PATH"), "YAML pattern table (built-in table when empty)")
	return cmd
}

func assessCmd() *cobra.Command {
	var (
		domainName string
		reportPath string
		values     []string
		modelDir   string
		features   string
	)
	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Assess one patient from a report and/or key=value inputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			initLogger()
			domain, ok := clinical.ParseDomain(domainName)
			if !ok {
				return fmt.Errorf("unknown domain %q", domainName)
			}
			user, err := parseValues(values)
			if err != nil {
				return err
			}

			cfg := config.Load()
			if cmd.Flags().Changed("models") {
				cfg.ModelArtifactDir = modelDir
			}
			if cmd.Flags().Changed("heart-features") {
				cfg.HeartFeaturesPath = features
			}
			components, err := assessment.LoadComponents(cfg, nil)
			if err != nil {
				return err
			}
			svc := assessment.NewService(components.Extractor, components.Resolver, components.Registry, nil, nil)

			req := assessment.Request{Domain: domain, User: user}
			if reportPath != "" {
				f, err := os.Open(reportPath)
				if err != nil {
					return err
				}
				defer f.Close()
				req.Document = f
			}

			result, err := svc.Assess(context.Background(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVarP(&domainName, "domain", "d", "", "diabetes or heart")
	cmd.Flags().StringVarP(&reportPath, "report", "r", "", "report text file")
	cmd.Flags().StringArrayVar(&values, "set", nil, "user input as key=value (repeatable)")
	cmd.Flags().StringVar(&modelDir, "models", "", "model artifact directory (MODEL_ARTIFACT_DIR)")
	cmd.Flags().StringVar(&features, "heart-features", "", "heart feature order file (HEART_FEATURES_PATH)")
	_ = cmd.MarkFlagRequired("domain")
	return cmd
}

// initLogger keeps stdout free for JSON output.
func initLogger() {
	logger.Init("riskctl")
	logger.Log.SetOutput(os.Stderr)
}

// parseValues turns key=value pairs into a candidate map. Values stay strings
// and are coerced during resolution.
func parseValues(pairs []string) (clinical.CandidateMap, error) {
	out := clinical.CandidateMap{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, expected key=value", pair)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}

func openInput(args []string) (io.Reader, func(), error) {
	if len(args) == 0 || args[0] == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
