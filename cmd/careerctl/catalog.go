package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"career-matching/internal/common/config"
	"career-matching/internal/common/database"
	"career-matching/internal/matching/catalog"
)

func newLoadCatalogCmd(opts *rootOptions) *cobra.Command {
	var csvPath string
	cmd := &cobra.Command{
		Use:   "load-catalog",
		Short: "Replace the configured catalog store with the rows of a CSV export",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()
			log := opts.logger()

			snap, err := catalog.NewCSVSource(csvPath).Load(ctx)
			if err != nil {
				return err
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			deps := catalog.Deps{}
			switch cfg.Catalog.Source {
			case config.CatalogSourcePostgres, "":
				pg, err := database.NewPostgres(cfg.Database.Postgres)
				if err != nil {
					return err
				}
				defer pg.Close()
				if err := pg.Ping(ctx); err != nil {
					return fmt.Errorf("postgres: %w", err)
				}
				deps.Postgres = pg
			case config.CatalogSourceElasticsearch:
				es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
				if err != nil {
					return err
				}
				deps.Elasticsearch = es
			default:
				return fmt.Errorf("catalog source %q cannot be written", cfg.Catalog.Source)
			}
			if cfg.Catalog.CacheTTL > 0 && cfg.Database.Redis.Address != "" {
				redis, err := database.NewRedis(cfg.Database.Redis)
				if err != nil {
					return err
				}
				defer redis.Close()
				deps.Redis = redis
			}

			src, err := catalog.NewSource(cfg.Catalog, deps, log)
			if err != nil {
				return err
			}
			w, ok := src.(catalog.Writer)
			if !ok {
				return fmt.Errorf("catalog source %s does not support writes", src.Name())
			}
			n, err := w.Replace(ctx, snap.Entries())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d careers into %s (version %s)\n", n, src.Name(), snap.Version())
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "career catalog CSV export")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}
