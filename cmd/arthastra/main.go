// ArthAstra — AI loan advisory for the Indian lending market
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/arthastra/arthastra/api"
	"github.com/arthastra/arthastra/internal/agent"
	"github.com/arthastra/arthastra/internal/config"
	"github.com/arthastra/arthastra/internal/datasource"
	"github.com/arthastra/arthastra/internal/llm"
	"github.com/arthastra/arthastra/pkg/models"
	"github.com/arthastra/arthastra/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "arthastra",
	Short: "ArthAstra — AI loan advisory for the Indian lending market",
	Long: `ArthAstra (Artha = wealth, Astra = weapon)
A multi-agent AI loan advisor for Indian borrowers: rejection recovery
planning, a simulated bank approval council, eligibility insights, loan
recommendations, and a bilingual lending chat assistant.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(recoverCmd)
	rootCmd.AddCommand(councilCmd)
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(statusCmd)

	for _, c := range []*cobra.Command{recoverCmd, councilCmd, insightsCmd} {
		addProfileFlags(c)
	}
}

// --- Profile flags shared by the pipeline commands ---

func addProfileFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("income", 0, "monthly income in INR")
	cmd.Flags().Float64("emi", 0, "existing monthly EMI obligations in INR")
	cmd.Flags().Float64("expenses", 0, "monthly expenses in INR")
	cmd.Flags().Int("credit-score", 0, "credit score (300-900)")
	cmd.Flags().String("employment", "", "employment type: salaried, self_employed, freelancer, student")
	cmd.Flags().String("job-tenure", "", "employment tenure: <6_months, 6m-1yr, 1-2yr, 2-5yr, 5+yr")
	cmd.Flags().String("savings", "", "savings bucket: 0-50k, 50k-1L, 1L-5L, 5L+")
	cmd.Flags().Float64("loan", 0, "desired loan amount in INR")
	cmd.Flags().Int("years", 0, "desired loan tenure in years")
}

func profileFromFlags(cmd *cobra.Command) models.UserProfile {
	income, _ := cmd.Flags().GetFloat64("income")
	emi, _ := cmd.Flags().GetFloat64("emi")
	expenses, _ := cmd.Flags().GetFloat64("expenses")
	score, _ := cmd.Flags().GetInt("credit-score")
	employment, _ := cmd.Flags().GetString("employment")
	tenure, _ := cmd.Flags().GetString("job-tenure")
	savings, _ := cmd.Flags().GetString("savings")
	loan, _ := cmd.Flags().GetFloat64("loan")
	years, _ := cmd.Flags().GetInt("years")

	return models.UserProfile{
		MonthlyIncome:    income,
		ExistingEMI:      emi,
		MonthlyExpenses:  expenses,
		CreditScore:      score,
		EmploymentType:   employment,
		EmploymentTenure: tenure,
		Savings:          savings,
		LoanAmount:       loan,
		TenureYears:      years,
	}
}

func pipelineContext() (context.Context, context.CancelFunc) {
	timeout := time.Duration(cfg.Pipeline.RequestTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

func newGateway() (*llm.Gateway, error) {
	return llm.NewGatewayFromConfig(cfg)
}

func printResult(result *models.PipelineResult) error {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ArthAstra %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := api.NewServer(cfg)
		if err != nil {
			return err
		}
		api.Version = version

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("🌐 Starting ArthAstra API server on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

// --- Recover Command (rejection recovery pipeline) ---

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Run the rejection-recovery pipeline",
	Long: `Run the three-agent rejection recovery squad on a borrower profile:
the Investigator diagnoses the likely rejection cause, the Negotiator
picks a counter-strategy, and the Architect lays out a step-by-step
comeback plan.

Example:
  arthastra recover --income 60000 --emi 25000 --credit-score 640 \
    --employment freelancer --job-tenure 6m-1yr --loan 500000 --years 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, err := newGateway()
		if err != nil {
			return err
		}

		ctx, cancel := pipelineContext()
		defer cancel()

		fmt.Println("🕵️  Running rejection recovery squad...")
		result := agent.NewRecoverySquad(gw, pipelineOpts()...).Run(ctx, profileFromFlags(cmd))
		return printResult(result)
	},
}

// --- Council Command (approval debate) ---

var councilCmd = &cobra.Command{
	Use:   "council",
	Short: "Run the financial council approval debate",
	Long: `Simulate a bank's credit committee: an optimist and a pessimist loan
officer argue the application in parallel, then a compliance judge
weighs both arguments and returns a verdict with a confidence score.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, err := newGateway()
		if err != nil {
			return err
		}

		ctx, cancel := pipelineContext()
		defer cancel()

		fmt.Println("⚖️  Convening the financial council...")
		result := agent.NewCouncil(gw, pipelineOpts()...).Run(ctx, profileFromFlags(cmd))
		return printResult(result)
	},
}

// --- Insights Command ---

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Run eligibility insights on a borrower profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, err := newGateway()
		if err != nil {
			return err
		}

		ctx, cancel := pipelineContext()
		defer cancel()

		fmt.Println("🔍 Analyzing loan eligibility...")
		result := agent.NewInsightsAgent(gw, pipelineOpts()...).Run(ctx, profileFromFlags(cmd))
		return printResult(result)
	},
}

// --- Chat Command ---

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Ask the lending advisor a one-shot question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, err := newGateway()
		if err != nil {
			return err
		}

		language, _ := cmd.Flags().GetString("language")

		ctx, cancel := pipelineContext()
		defer cancel()

		reply, err := agent.NewAdvisor(gw).Chat(ctx, agent.ChatRequest{
			Messages: []agent.ChatMessage{{Role: "user", Content: args[0]}},
			Language: language,
		})
		if err != nil {
			return err
		}

		fmt.Println(reply)
		return nil
	},
}

func init() {
	chatCmd.Flags().String("language", "en", "response language: en or hi")
}

// --- News Command ---

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Show recent Indian lending news headlines",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		news := datasource.NewNews(
			datasource.WithCacheTTL(time.Duration(cfg.News.CacheTTL) * time.Second),
			datasource.WithRateLimit(cfg.News.RateLimitPerMin, time.Minute),
		)

		articles, err := news.GetLendingNews(ctx, limit)
		if err != nil {
			return err
		}
		if len(articles) == 0 {
			fmt.Println("No lending news found.")
			return nil
		}

		for _, a := range articles {
			fmt.Printf("📰 %s\n", a.Title)
			fmt.Printf("   %s — %s\n", a.Source, a.PublishedAt.Format("02 Jan 2006 15:04"))
			fmt.Printf("   %s\n\n", a.URL)
		}
		return nil
	},
}

func init() {
	newsCmd.Flags().Int("limit", 10, "maximum number of headlines")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  ArthAstra — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Time (IST):    %s\n", utils.FormatDateTimeIST(utils.NowIST()))
		fmt.Println()

		// Config summary
		fmt.Println("  Configuration:")
		fmt.Printf("    Model:         %s\n", cfg.LLM.Model)
		fmt.Printf("    Fallbacks:     %v\n", cfg.LLM.FallbackModels)
		fmt.Printf("    Stage Delay:   %dms\n", cfg.Pipeline.StageDelayMS)
		fmt.Printf("    API Server:    %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println()

		// API keys status
		fmt.Println("  API Keys:")
		keys := config.CheckAPIKeys(cfg)
		for _, k := range keys {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

// pipelineOpts derives pipeline pacing from config.
func pipelineOpts() []agent.PipelineOption {
	return []agent.PipelineOption{
		agent.WithStageDelay(time.Duration(cfg.Pipeline.StageDelayMS) * time.Millisecond),
	}
}
