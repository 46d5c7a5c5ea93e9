// Package search contains the command to prefix-search every configured
// dictionary source.
package search

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/quickdict/quickdict/cmd"
	"github.com/quickdict/quickdict/internal/concurrency"
	"github.com/quickdict/quickdict/pkg/dictionary/registry"
	"github.com/quickdict/quickdict/pkg/logger"
)

func NewSearchCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "search <prefix>",
		Short: "List words starting with the prefix in every configured dictionary",
		Long:  "List words starting with the prefix in every configured dictionary.",
		RunE:  runSearch,
		Args:  cobra.ExactArgs(1),
	}

	cmd.BindCommonFlags(command)

	return command
}

func runSearch(command *cobra.Command, args []string) error {
	cfg := cmd.ReadConfig()
	l := logger.MustNewLogger(cfg.Log.Format, cfg.Log.Level)

	sources, err := cmd.LoadSources(cfg.SourcesPath)
	if err != nil {
		return err
	}

	reg, err := registry.New(registry.Settings{
		Logger:       l,
		Sources:      sources,
		MaxInFlight:  cfg.MaxInFlight,
		CacheEnabled: cfg.Cache.Enabled,
		CacheMaxCost: cfg.Cache.MaxCost,
		CacheTTL:     cfg.Cache.TTL,
	})
	if err != nil {
		return err
	}
	defer reg.Close()

	dicts := reg.Dictionaries()
	if len(dicts) == 0 {
		return errors.New("no dictionary sources are enabled")
	}

	prefix := args[0]

	ctx, cancel := context.WithTimeout(command.Context(), cfg.Timeout)
	defer cancel()

	var outMu sync.Mutex
	out := command.OutOrStdout()

	pool := concurrency.NewPool(ctx, len(dicts))
	for _, d := range dicts {
		pool.Go(func(ctx context.Context) error {
			req := d.Search(prefix)
			select {
			case <-req.Done():
			case <-ctx.Done():
				req.Cancel()
				<-req.Done()
			}

			outMu.Lock()
			defer outMu.Unlock()
			fmt.Fprintf(out, "== %s ==\n", d.Name())
			matches := req.Matches()
			switch {
			case len(matches) > 0:
				for _, m := range matches {
					fmt.Fprintln(out, m)
				}
			case req.ErrorMessage() != "":
				fmt.Fprintf(out, "search failed: %s\n", req.ErrorMessage())
			default:
				fmt.Fprintln(out, "no matches")
			}
			return nil
		})
	}
	return pool.Wait()
}
