package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/socialrank/internal/config"
	"github.com/TobiSchelling/socialrank/internal/database"
	"github.com/TobiSchelling/socialrank/internal/logging"
	"github.com/TobiSchelling/socialrank/internal/pipeline"
	"github.com/TobiSchelling/socialrank/internal/recommend"
	"github.com/TobiSchelling/socialrank/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "socialrank",
	Short:   "Article recommendations for a social network",
	Long:    "SocialRank ranks articles for a user from tag affinity, friends' activity, comments and freshness.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logging.Init(logging.Config{Level: level, Format: cfg.Logging.Format})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(articlesCmd)
	rootCmd.AddCommand(interactCmd)
	rootCmd.AddCommand(commentCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("socialrank", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/socialrank/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to set feeds, the ingest publisher and scoring weights.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Printf("Users: %d\n", stats.Users)
		fmt.Println("\nArticles:")
		fmt.Printf("  Active: %d\n", stats.Articles)
		fmt.Printf("  Deleted: %d\n", stats.DeletedArticles)
		fmt.Printf("  Tagged: %d\n", stats.TaggedArticles)
		fmt.Println("\nActivity:")
		fmt.Printf("  Interactions: %d\n", stats.Interactions)
		fmt.Printf("  Comments: %d\n", stats.Comments)

		tags, err := db.ListTags(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing tags: %w", err)
		}
		if len(tags) > 0 {
			fmt.Println("\nTop tags:")
			for i, t := range tags {
				if i == 10 {
					break
				}
				fmt.Printf("  %s: %d\n", t.Tag, t.Count)
			}
		}
		return nil
	},
}

// --- recommend command ---

var (
	recPage  int
	recLimit int
	recJSON  bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend [user-id]",
	Short: "Show ranked articles for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		rec, err := recommend.NewRecommender(db, cfg.RecommendConfig(), logging.Logger())
		if err != nil {
			return err
		}

		res, err := rec.Recommend(cmd.Context(), args[0], recPage, recLimit)
		if err != nil {
			return err
		}

		if recJSON {
			data, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		if res.Total == 0 {
			fmt.Println("No visible articles.")
			return nil
		}
		fmt.Printf("Page %d of %d (%d articles)\n\n", res.CurrentPage, res.TotalPages, res.Total)

		titles := make(map[string]database.HydratedArticle, len(res.Articles))
		for _, a := range res.Articles {
			titles[a.ID] = a
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SCORE\tCONTENT\tSOCIAL\tDECAY\tTITLE\tAUTHOR")
		for _, d := range res.Details {
			a, ok := titles[d.ArticleID]
			if !ok {
				continue
			}
			author := a.AuthorID
			if a.Author != nil {
				author = a.Author.Name
			}
			fmt.Fprintf(tw, "%.2f\t%.2f\t%.2f\t%.2f\t%s\t%s\n",
				d.FinalScore, d.ContentScore, d.CollaborativeScore, d.DecayFactor, a.Title, author)
		}
		return tw.Flush()
	},
}

func init() {
	recommendCmd.Flags().IntVar(&recPage, "page", 1, "Page number (1-indexed)")
	recommendCmd.Flags().IntVar(&recLimit, "limit", 0, "Articles per page (default from config)")
	recommendCmd.Flags().BoolVar(&recJSON, "json", false, "Print the full result as JSON")
}

// --- ingest command ---

var dryRun bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest articles from configured feeds: collect -> fetch",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe := pipeline.New(cfg, db, logging.Logger())

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun(cmd.Context())
		} else {
			result = pipe.Run(cmd.Context())
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/2: %s\n", i+1, step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if result.Failed() {
			return fmt.Errorf("ingest failed")
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		rec, err := recommend.NewRecommender(db, cfg.RecommendConfig(), logging.Logger())
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rc := rec.Config()
		logging.Info().
			Float64("alpha", rc.Alpha).
			Float64("comment_boost", rc.CommentBoost).
			Float64("decay_half_life_days", rc.DecayHalfLifeDays).
			Int("max_limit", rc.MaxLimit).
			Msg("recommender ready")

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		srv := server.New(db, rec, cfg.RequestTimeout(), logging.Logger())
		return server.Serve(ctx, srv, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "socialrank.db")
	return database.Open(dbPath)
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
