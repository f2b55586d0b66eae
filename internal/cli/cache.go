package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/beepf/topoconsole/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the topology, layout and render cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry, including the last-known topology",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cache.Open(cmd.Context(), c.cfg.CacheOptions())
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer store.Close()

			clearer, ok := store.(cache.Clearer)
			if !ok {
				printInfo("Cache is disabled")
				return nil
			}
			n, err := clearer.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			printSuccess("Cleared %d cached entries", n)
			printDetail("Backend: %s", c.cacheLocation())
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
			fmt.Fprintln(cmd.OutOrStdout(), c.cacheLocation())
			return nil
		},
	}
}

// cacheLocation describes the configured cache: a directory for the file
// backend, an address for the others.
func (c *CLI) cacheLocation() string {
	opts := c.cfg.CacheOptions()
	switch opts.Backend {
	case cache.BackendRedis:
		return fmt.Sprintf("redis://%s/%d", opts.RedisAddr, opts.RedisDB)
	case cache.BackendMongo:
		uri := opts.MongoURI
		if u, err := url.Parse(uri); err == nil {
			uri = u.Redacted()
		}
		return fmt.Sprintf("%s (%s.%s)", uri, opts.MongoDatabase, opts.MongoCollection)
	case cache.BackendNone, "null", "off":
		return cache.BackendNone
	default:
		if opts.Dir != "" {
			return opts.Dir
		}
		return cache.DefaultDir()
	}
}
