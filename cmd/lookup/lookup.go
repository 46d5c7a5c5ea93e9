// Package lookup contains the command to look a word up in every
// configured dictionary source.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/quickdict/quickdict/cmd"
	"github.com/quickdict/quickdict/internal/concurrency"
	"github.com/quickdict/quickdict/pkg/dictionary"
	"github.com/quickdict/quickdict/pkg/dictionary/registry"
	"github.com/quickdict/quickdict/pkg/logger"
)

func NewLookupCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "lookup <word> [alternate...]",
		Short: "Look a word up in every configured dictionary",
		Long: `Look a word up in every configured dictionary.

Extra arguments are treated as alternate forms of the word and queried
after it. Results are printed per dictionary as their lookups resolve.`,
		RunE: runLookup,
		Args: cobra.MinimumNArgs(1),
	}

	cmd.BindCommonFlags(command)

	return command
}

func runLookup(command *cobra.Command, args []string) error {
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

	word, alternates := args[0], args[1:]

	ctx, cancel := context.WithTimeout(command.Context(), cfg.Timeout)
	defer cancel()

	var outMu sync.Mutex
	out := command.OutOrStdout()

	pool := concurrency.NewPool(ctx, len(dicts))
	for _, d := range dicts {
		pool.Go(func(ctx context.Context) error {
			req := d.GetArticle(word, alternates)
			awaitRequest(ctx, req)

			outMu.Lock()
			defer outMu.Unlock()
			fmt.Fprintf(out, "== %s ==\n", d.Name())
			switch {
			case req.HasData():
				fmt.Fprintln(out, string(req.Snapshot()))
			case req.ErrorMessage() != "":
				fmt.Fprintf(out, "lookup failed: %s\n", req.ErrorMessage())
			default:
				fmt.Fprintln(out, "no article found")
			}
			return nil
		})
	}
	return pool.Wait()
}

// awaitRequest waits for the request to finish, cancelling it when the
// context expires first. Partial results survive the cancellation.
func awaitRequest(ctx context.Context, req dictionary.Request) {
	select {
	case <-req.Done():
	case <-ctx.Done():
		req.Cancel()
		<-req.Done()
	}
}
