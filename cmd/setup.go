package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/seccat-audit/pkg/adk"
	"github.com/user/seccat-audit/pkg/cache"
	"github.com/user/seccat-audit/pkg/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Run: func(cmd *cobra.Command, args []string) {
		in := bufio.NewScanner(os.Stdin)
		fmt.Println("seccat-audit setup")
		fmt.Println("------------------")

		fmt.Println("Step 1: Choose the language model provider")
		fmt.Println("1. OpenAI")
		fmt.Println("2. Gemini (Google)")
		fmt.Println("3. Anthropic")
		var provider string
		switch strings.ToLower(prompt(in, "Enter number or name")) {
		case "1", "openai", "":
			provider = "openai"
		case "2", "gemini":
			provider = "gemini"
		case "3", "anthropic":
			provider = "anthropic"
		default:
			fmt.Println("Invalid choice. Aborting.")
			return
		}

		fmt.Printf("\nStep 2: Enter API Key for %s\n", provider)
		apiKey := prompt(in, "")
		if apiKey == "" {
			fmt.Println("API Key cannot be empty.")
			return
		}

		fmt.Println("\nStep 3: Validating key and fetching available models...")
		ctx := context.Background()
		p, err := adk.NewProvider(ctx, provider, apiKey, "")
		if err != nil {
			fmt.Printf("Error initializing provider: %v\n", err)
			return
		}
		if closer, ok := p.(interface{ Close() }); ok {
			defer closer.Close()
		}

		model := adk.DefaultModel(provider)
		models, err := p.ListModels(ctx)
		if err != nil || len(models) == 0 {
			if err != nil {
				fmt.Printf("Warning: Could not fetch models from API: %v\n", err)
			}
			if m := prompt(in, fmt.Sprintf("Model name [%s]", model)); m != "" {
				model = m
			}
		} else {
			for i, m := range models {
				fmt.Printf("%d. %s\n", i+1, m)
			}
			idx, err := strconv.Atoi(prompt(in, "Select Model (number)"))
			if err != nil || idx < 1 || idx > len(models) {
				fmt.Printf("Invalid selection. Using %s.\n", model)
			} else {
				model = models[idx-1]
			}
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			return
		}
		cfg.SelectedProvider = provider
		cfg.SelectedModel = model
		cfg.SetAPIKey(provider, apiKey)

		if adk.IsReasoningModel(model) {
			fmt.Println("\nStep 4: Reasoning model detected")
			effort := strings.ToLower(prompt(in, "Reasoning effort (low/medium/high, empty for provider default)"))
			switch effort {
			case "", "low", "medium", "high":
				cfg.ReasoningEffort = effort
			default:
				fmt.Println("Unknown effort, leaving it unset.")
			}
		}

		fmt.Println("\nStep 5: Verdict cache (optional)")
		if url := prompt(in, "Redis URL (empty to disable)"); url != "" {
			rc, err := cache.NewRedis(url, 0)
			if err != nil {
				fmt.Printf("Invalid Redis URL, cache left disabled: %v\n", err)
			} else {
				if err := rc.Ping(ctx); err != nil {
					fmt.Printf("Warning: Redis not reachable right now: %v\n", err)
				}
				rc.Close()
				cfg.Cache.RedisURL = url
			}
		}

		if err := config.SaveConfig(cfg); err != nil {
			fmt.Printf("Error saving config: %v\n", err)
			return
		}

		fmt.Println("------------------")
		fmt.Println("Setup Complete!")
		fmt.Printf("Provider: %s\n", provider)
		fmt.Printf("Model:    %s\n", model)
		fmt.Println("You can now run 'seccat-audit audit --checklist <file> --reports <dir> --output-dir <dir>'")
	},
}

// prompt prints label and returns the trimmed next input line.
func prompt(in *bufio.Scanner, label string) string {
	if label != "" {
		fmt.Print(label + " ")
	}
	fmt.Print("> ")
	if !in.Scan() {
		return ""
	}
	return strings.TrimSpace(in.Text())
}

func init() {
	configCmd.AddCommand(setupCmd)
}
