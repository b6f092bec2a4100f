package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/seccat-audit/pkg/adk"
	"github.com/user/seccat-audit/pkg/config"
	"github.com/user/seccat-audit/pkg/engine"
	"github.com/user/seccat-audit/pkg/evidence"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Ask for verdicts on ad-hoc requirements against collected evidence",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Resolve()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyAuditFlags(cmd, cfg)
		reportsDir, _ := cmd.Flags().GetString("reports")

		ctx := context.Background()
		bundle := evidence.Collect(evidence.Options{
			ReportsDir:   reportsDir,
			SourceRoot:   cfg.Audit.SourceRoot,
			MaxScanBytes: cfg.Audit.MaxScanBytes,
		})

		eng, cleanup := buildEngine(ctx, cfg)
		defer cleanup()
		if !eng.Available() {
			fmt.Println("Warning: no model configured, every answer will be Insufficient_Evidence.")
			fmt.Println("Run 'seccat-audit config setup' to configure a provider.")
		}

		in := bufio.NewScanner(os.Stdin)
		fmt.Println("\n---------------------------------------------------------")
		fmt.Printf("Evidence loaded: %d SAST findings, code patterns %v\n", len(bundle.SAST), bundle.CodePatterns)
		fmt.Println("Type a requirement, optionally prefixed by an id: 'NET-01: Use TLS for all traffic'")
		fmt.Println("Type 'quit' or 'exit' to stop.")
		fmt.Println("---------------------------------------------------------")

		for n := 1; ; {
			fmt.Print("\n> ")
			if !in.Scan() {
				break
			}
			input := strings.TrimSpace(in.Text())
			if input == "quit" || input == "exit" {
				break
			}
			if input == "" {
				continue
			}

			req := parseAdHocRequirement(input, n)
			n++
			fmt.Print("Evaluating... ")
			v := eng.Evaluate(ctx, req, bundle)
			fmt.Print("\r\033[K")

			out, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				adk.Warnf("encode verdict: %v", err)
				continue
			}
			fmt.Println(string(out))
		}
		return nil
	},
}

// parseAdHocRequirement splits an optional "ID: text" prefix.
func parseAdHocRequirement(input string, n int) engine.Requirement {
	if id, text, ok := strings.Cut(input, ":"); ok {
		id, text = strings.TrimSpace(id), strings.TrimSpace(text)
		if id != "" && text != "" && !strings.ContainsAny(id, " \t") {
			return engine.Requirement{ID: id, Text: text}
		}
	}
	return engine.Requirement{ID: fmt.Sprintf("ASK-%03d", n), Text: input}
}

func init() {
	interactiveCmd.Flags().String("reports", "", "Directory containing scanner reports")
	interactiveCmd.Flags().String("source-root", ".", "Source tree to pattern-scan")
	interactiveCmd.Flags().String("provider", "", "Provider override (openai, gemini, anthropic)")
	interactiveCmd.Flags().String("model", "", "Model override")
	rootCmd.AddCommand(interactiveCmd)
}
