package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/devrev/bizdir/internal/auth"
	"github.com/devrev/bizdir/internal/notify"
	"github.com/devrev/bizdir/internal/service"
	"github.com/devrev/bizdir/internal/store"
	"github.com/devrev/bizdir/internal/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// migrateCmd applies the embedded schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.store.Migrate(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
		return nil
	},
}

// refreshPromotionsCmd runs one promotion refresh outside the server schedule
var refreshPromotionsCmd = &cobra.Command{
	Use:   "refresh-promotions",
	Short: "Recompute promoted flags now",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		promotions := service.NewPromotionService(e.store, e.cfg.Promotions.DefaultDays, notify.NewLogNotifier(e.logger), nil, e.logger)
		result, err := promotions.Refresh(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "promoted=%d demoted=%d expired=%d\n", result.Promoted, result.Demoted, result.Expired)
		return nil
	},
}

var seedFile string

// seedCategoriesCmd loads categories from a YAML file
var seedCategoriesCmd = &cobra.Command{
	Use:   "seed-categories",
	Short: "Create categories and subcategories from a YAML file",
	Long: `Create categories and subcategories from a YAML file.

Entries whose slug already exists are left as they are, so the command
can be re-run after editing the file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, err := loadSeedFile(seedFile)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		cache := store.NewInMemoryCache(1, time.Minute, e.logger)
		defer cache.Close()
		categories := service.NewCategoryService(e.store, cache, time.Minute, validation.NewValidator(), notify.NewLogNotifier(e.logger), e.logger)

		stats, err := seedCategories(ctx, categories, seed)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "categories created=%d skipped=%d, subcategories created=%d skipped=%d\n",
			stats.CategoriesCreated, stats.CategoriesSkipped, stats.SubcategoriesCreated, stats.SubcategoriesSkipped)
		return nil
	},
}

var (
	tokenUser  string
	tokenEmail string
	tokenTTL   time.Duration
)

// tokenCmd mints a development token
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a signed access token for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ttl := tokenTTL
		if ttl <= 0 {
			ttl = cfg.Auth.TokenTTL
		}
		token, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, ttl).Issue(tokenUser, tokenEmail)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var (
	reportBusiness string
	reportFrom     string
	reportTo       string
	reportOut      string
)

// reportCmd writes a click report PDF
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write a listing's click report as PDF",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to, err := parseReportRange(reportFrom, reportTo)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		businesses := service.NewBusinessService(e.store, validation.NewValidator(), notify.NewLogNotifier(e.logger), e.logger)
		business, err := businesses.Get(ctx, reportBusiness)
		if err != nil {
			return err
		}

		analytics := service.NewAnalyticsService(e.store, 0, e.cfg.Analytics.HashSalt, nil, e.logger)
		var buf bytes.Buffer
		if err := service.NewReportService(analytics, e.logger).WriteClickReport(ctx, &buf, business, from, to); err != nil {
			return err
		}

		out := reportOut
		if out == "" {
			out = business.Slug + "-clicks.pdf"
		}
		if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		e.logger.Info("Wrote click report", zap.String("business_id", business.ID), zap.String("path", out))
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	seedCategoriesCmd.Flags().StringVar(&seedFile, "file", "categories.yaml", "YAML file with categories")

	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user id (token subject)")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "email claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default auth.token_ttl)")
	_ = tokenCmd.MarkFlagRequired("user")

	reportCmd.Flags().StringVar(&reportBusiness, "business", "", "business id")
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "first day, YYYY-MM-DD (default 30 days ago)")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "last day, YYYY-MM-DD (default today)")
	reportCmd.Flags().StringVar(&reportOut, "out", "", "output file (default <slug>-clicks.pdf)")
	_ = reportCmd.MarkFlagRequired("business")
}

// parseReportRange reads inclusive day bounds; to is returned as the next midnight.
func parseReportRange(from, to string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if from != "" {
		if start, err = time.Parse("2006-01-02", from); err != nil {
			return start, end, fmt.Errorf("invalid --from: %w", err)
		}
	}
	if to != "" {
		if end, err = time.Parse("2006-01-02", to); err != nil {
			return start, end, fmt.Errorf("invalid --to: %w", err)
		}
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}
