package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/icebergviz/pkg/cache"
	"github.com/matzehuels/icebergviz/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the artifact cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached artifact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.Config()
			if err != nil {
				return err
			}
			cc, err := c.openCache(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer cc.Close()

			clearer, ok := cc.(cache.Clearer)
			if !ok {
				printInfo("The %s cache has nothing to clear", cfg.Cache.Backend)
				return nil
			}
			if err := clearer.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear %s cache: %w", cfg.Cache.Backend, err)
			}
			printSuccess("Cleared the %s cache", cfg.Cache.Backend)
			if dir, err := cacheLocation(cfg.Cache); err == nil {
				printDetail("Location: %s", dir)
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the cache lives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.Config()
			if err != nil {
				return err
			}
			loc, err := cacheLocation(cfg.Cache)
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(c.Out, loc)
			return nil
		},
	}
}

// cacheLocation describes where cfg stores entries: a directory for the
// file backend, the server address otherwise.
func cacheLocation(cfg config.Cache) (string, error) {
	switch cfg.Backend {
	case config.CacheFile, "":
		if cfg.Dir != "" {
			return cfg.Dir, nil
		}
		return cache.DefaultDir()
	case config.CacheRedis:
		return "redis://" + cfg.RedisAddr, nil
	case config.CacheMongo:
		return cfg.MongoURI + "/" + cfg.MongoDatabase, nil
	}
	return cfg.Backend, nil
}
