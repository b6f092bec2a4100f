package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/seccat-audit/pkg/adk"
	"github.com/user/seccat-audit/pkg/config"
	"github.com/user/seccat-audit/pkg/engine"
	"github.com/user/seccat-audit/pkg/evidence"
	"github.com/user/seccat-audit/pkg/report"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Evaluate every checklist requirement against the collected evidence",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Resolve()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyAuditFlags(cmd, cfg)

		checklist, _ := cmd.Flags().GetString("checklist")
		reportsDir, _ := cmd.Flags().GetString("reports")
		outputDir, _ := cmd.Flags().GetString("output-dir")
		baselinePath, _ := cmd.Flags().GetString("baseline")

		reqs, err := engine.LoadRequirements(checklist)
		if err != nil {
			return err
		}
		reqs = engine.Truncate(reqs, cfg.Audit.MaxRequirements)
		adk.Infof("loaded %d requirements from %s", len(reqs), checklist)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		start := time.Now()
		bundle := evidence.Collect(evidence.Options{
			ReportsDir:   reportsDir,
			SourceRoot:   cfg.Audit.SourceRoot,
			MaxScanBytes: cfg.Audit.MaxScanBytes,
		})
		adk.Debugf("evidence collected in %s: %d SAST findings, code patterns %v", time.Since(start), len(bundle.SAST), bundle.CodePatterns)

		eng, cleanup := buildEngine(ctx, cfg)
		defer cleanup()

		verdicts := eng.EvaluateAll(ctx, reqs, bundle)

		r := report.New(cfg.Audit.Application, verdicts, bundle)
		if eng.Available() {
			r.Model = cfg.SelectedModel
		}
		if baselinePath != "" {
			baseline, err := report.Load(baselinePath)
			if err != nil {
				adk.Warnf("baseline ignored: %v", err)
			} else {
				diff := r.Compare(baseline)
				r.Notes = append(r.Notes, fmt.Sprintf("Compared with baseline %s: %d changed, %d regressions", baseline.RunID, len(diff.Changed), diff.Regressions()))
				fmt.Print(diff.String())
			}
		}

		if err := r.WriteFiles(outputDir); err != nil {
			return fmt.Errorf("write reports: %w", err)
		}

		s := r.Stats
		fmt.Printf("Total: %d | Yes: %d | No: %d | N/a: %d | Insufficient: %d\n", s.Total, s.Yes, s.No, s.NA, s.Insufficient)
		fmt.Println("Done. Reports in:", filepath.Clean(outputDir))
		return nil
	},
}

// applyAuditFlags lets explicitly set flags win over file and env values.
func applyAuditFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("provider") {
		cfg.SelectedProvider, _ = f.GetString("provider")
		if !f.Changed("model") {
			cfg.SelectedModel = ""
		}
	}
	if f.Changed("model") {
		cfg.SelectedModel, _ = f.GetString("model")
	}
	if f.Changed("source-root") {
		cfg.Audit.SourceRoot, _ = f.GetString("source-root")
	}
	if f.Changed("max-requirements") {
		cfg.Audit.MaxRequirements, _ = f.GetInt("max-requirements")
	}
	if f.Changed("max-scan-bytes") {
		cfg.Audit.MaxScanBytes, _ = f.GetInt64("max-scan-bytes")
	}
	if f.Changed("workers") {
		cfg.Audit.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("app") {
		cfg.Audit.Application, _ = f.GetString("app")
	}
}

func init() {
	auditCmd.Flags().String("checklist", "", "Checklist file (JSON or YAML)")
	auditCmd.Flags().String("reports", "", "Directory containing scanner reports")
	auditCmd.Flags().String("source-root", ".", "Source tree to pattern-scan")
	auditCmd.Flags().String("output-dir", "", "Directory for audit-findings.json and the markdown summaries")
	auditCmd.Flags().String("provider", "", "Provider override (openai, gemini, anthropic)")
	auditCmd.Flags().String("model", "", "Model override")
	auditCmd.Flags().Int("max-requirements", -1, "Evaluate only the first N requirements")
	auditCmd.Flags().Int64("max-scan-bytes", 2_000_000, "Byte budget of the source pattern scan")
	auditCmd.Flags().Int("workers", 4, "Concurrent requirement evaluations")
	auditCmd.Flags().String("app", "", "Application name (default: GITHUB_REPOSITORY base name)")
	auditCmd.Flags().String("baseline", "", "Previous audit-findings.json to compare against")
	_ = auditCmd.MarkFlagRequired("checklist")
	_ = auditCmd.MarkFlagRequired("reports")
	_ = auditCmd.MarkFlagRequired("output-dir")

	rootCmd.AddCommand(auditCmd)
}
