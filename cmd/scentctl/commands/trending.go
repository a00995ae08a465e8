package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/scentboard/scentboard/internal/repository"
	"github.com/scentboard/scentboard/internal/services"
	"github.com/spf13/cobra"
)

var topLimit int

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Inspect or rebuild trending scores",
}

var trendingRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Recompute trending scores from recent engagement",
	Long: `Replace the trending set with scores computed from likes and comments
inside the configured window (trending.window_days).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrendingRebuild(cmd)
	},
}

var trendingTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Show the highest ranked posts",
	Long: `Print the top trending posts with their scores.

Examples:
  scentctl trending top
  scentctl trending top --limit 50`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrendingTop(cmd)
	},
}

func init() {
	trendingTopCmd.Flags().IntVarP(&topLimit, "limit", "n", 20, "Number of posts to show")

	trendingCmd.AddCommand(trendingRebuildCmd)
	trendingCmd.AddCommand(trendingTopCmd)
	rootCmd.AddCommand(trendingCmd)
}

func runTrendingRebuild(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := openCache(cfg)
	defer redisClient.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := redisClient.Ping(ctx); err != nil {
		return err
	}

	trending := services.NewTrendingService(redisClient, repository.NewPostRepository(db.DB), cfg.Trending, log)
	ranked, err := trending.Rebuild(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ ranked %d posts\n", ranked)
	return nil
}

func runTrendingTop(cmd *cobra.Command) error {
	if topLimit <= 0 {
		return fmt.Errorf("--limit must be positive")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	redisClient := openCache(cfg)
	defer redisClient.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	key := cfg.Trending.Key
	if key == "" {
		key = "trending:posts"
	}
	entries, err := redisClient.ZRevRangeWithScores(ctx, key, 0, int64(topLimit-1))
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No trending posts")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tPOST\tSCORE")
	for i, z := range entries {
		fmt.Fprintf(w, "%d\t%v\t%.0f\n", i+1, z.Member, z.Score)
	}
	return w.Flush()
}
