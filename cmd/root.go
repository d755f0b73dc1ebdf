package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/cpulvermacher/claudechat/internal/claude"
	"github.com/cpulvermacher/claudechat/internal/config"
	"github.com/cpulvermacher/claudechat/internal/credentials"
	"github.com/cpulvermacher/claudechat/internal/prompt"
	"github.com/cpulvermacher/claudechat/internal/provider"
	"github.com/cpulvermacher/claudechat/internal/ui"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "claudechat",
	Short: "Chat with Claude from your terminal",
	Long:  `claudechat is a terminal chat client that streams replies from Anthropic's Claude models as they are generated.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := ui.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var setCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a config value",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := config.Set(args[0], args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		value := args[1]
		if isSensitiveConfigKey(args[0]) {
			value = maskSecret(value)
		}
		fmt.Printf("Set %s = %s\n", args[0], value)
	},
}

var getCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a config value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		value := config.Get(args[0])
		if s, ok := value.(string); ok && isSensitiveConfigKey(args[0]) {
			value = maskSecret(s)
		}
		fmt.Printf("%s = %v\n", args[0], value)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := config.Save(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration initialized at %s\n", filepath.Join(home, ".claudechat", "config.yaml"))
		fmt.Println("Set your API key with: claudechat config set api_key YOUR_KEY")
	},
}

var askCmd = &cobra.Command{
	Use:   "ask [prompt...]",
	Short: "Send a one-shot prompt and stream the reply to stdout",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p, err := buildProvider()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		text := strings.Join(args, " ")
		err = p.ProvideResponse(ctx, prompt.Text(text), func(fragment string) {
			fmt.Print(fragment)
		})
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var estimateTokens bool

var tokensCmd = &cobra.Command{
	Use:   "tokens [text...]",
	Short: "Count input tokens for the given text",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		text := strings.Join(args, " ")

		if estimateTokens {
			// Length-based approximation, no network call.
			fmt.Println(claude.EstimateTokens(text))
			return
		}

		p, err := buildProvider()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		count, err := p.ProvideTokenCount(ctx, prompt.Text(text))
		if err != nil {
			if errors.Is(err, claude.ErrNoCount) {
				fmt.Fprintln(os.Stderr, "Error: the counting endpoint returned no usable count (try --estimate)")
			} else {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(1)
		}
		fmt.Println(count)
	},
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List registered model providers and their capabilities",
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := buildProvider(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, name := range registry.Names() {
			p, _ := registry.Get(name)
			meta := p.Metadata()
			fmt.Printf("%s\t%s %s (family %s, version %s, max input %d, max output %d)\n",
				name, meta.Vendor, meta.Name, meta.Family, meta.Version,
				meta.MaxInputTokens, meta.MaxOutputTokens)
		}
	},
}

// registry is the process-wide registration surface other commands query.
var registry = provider.NewRegistry()

// buildProvider constructs the model provider and registers it, prompting
// for a credential if none is stored.
func buildProvider() (*provider.Provider, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	creds := credentials.NewStore(cfg, credentials.TerminalPrompter())
	apiKey, err := creds.GetOrPrompt()
	if err != nil {
		return nil, err
	}

	client, err := claude.New(apiKey, cfg.Model, cfg.MaxTokens, nil)
	if err != nil {
		return nil, err
	}

	p := provider.New(client, providerMetadata(cfg))
	if err := registry.Register("claude", p); err != nil {
		return nil, err
	}
	return p, nil
}

func providerMetadata(cfg *config.Config) provider.Metadata {
	return provider.Metadata{
		Vendor:          "anthropic",
		Name:            "Claude 3.5 Sonnet",
		Family:          "claude-3.5-sonnet",
		Version:         "20241022",
		MaxInputTokens:  200000,
		MaxOutputTokens: cfg.MaxTokens,
	}
}

// isSensitiveConfigKey reports whether a config key holds a secret that
// should never be echoed back in full.
func isSensitiveConfigKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.Contains(key, "api_key")
}

// maskSecret hides all but the edges of a secret value.
func maskSecret(value string) string {
	if len(value) < 12 {
		return "***"
	}
	return value[:4] + "***" + value[len(value)-4:]
}

func init() {
	tokensCmd.Flags().BoolVar(&estimateTokens, "estimate", false, "use a length-based estimate instead of the counting endpoint")

	configCmd.AddCommand(setCmd)
	configCmd.AddCommand(getCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(providersCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
