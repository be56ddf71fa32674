package app

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/stacklok/marketplace-hub/internal/httpclient"
	"github.com/stacklok/marketplace-hub/internal/locator"
	"github.com/stacklok/marketplace-hub/internal/registry"
)

// maxConcurrentChecks bounds the HEAD requests issued by --check-urls
const maxConcurrentChecks = 8

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the marketplace registry file",
		Long: `Load and validate the marketplace registry. With --check-urls every manifest
URL is also probed with a HEAD request; unreachable manifests fail the command.`,
		RunE: runValidate,
	}

	addConfigFlags(cmd.Flags())
	cmd.Flags().Bool("check-urls", false, "Probe every manifest URL with a HEAD request")

	return cmd
}

func runValidate(cmd *cobra.Command, _ []string) error {
	v, err := newViper(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	hub, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "%s: %d marketplaces, version %s\n", cfg.Registry.Path, hub.Len(), hub.Metadata.Version)

	if !v.GetBool("check-urls") {
		return nil
	}

	client := httpclient.NewDefaultClient(cfg.GetFetchTimeout(), httpclient.WithUserAgent(cfg.GetUserAgent()))
	unreachable := checkManifestURLs(cmd.Context(), client, hub.Entries(), out)
	if unreachable > 0 {
		return fmt.Errorf("%d of %d manifests are unreachable", unreachable, hub.Len())
	}
	return nil
}

// checkManifestURLs probes each entry's manifest URL and reports failures.
// Entries without a resolvable URL count as unreachable.
func checkManifestURLs(ctx context.Context, client httpclient.Client, entries []registry.Entry, out io.Writer) int {
	reachable := make([]bool, len(entries))
	urls := make([]string, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentChecks)
	for i, e := range entries {
		urls[i] = e.ManifestURL
		if urls[i] == "" {
			urls[i] = locator.BuildManifestURL(e.Repository, "")
		}
		if urls[i] == "" {
			continue
		}
		g.Go(func() error {
			status, err := client.Head(gctx, urls[i])
			reachable[i] = err == nil && status >= 200 && status < 300
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i, e := range entries {
		if reachable[i] {
			continue
		}
		failed++
		if urls[i] == "" {
			_, _ = fmt.Fprintf(out, "  %s: no manifest URL for repository %q\n", e.ID, e.Repository)
			continue
		}
		_, _ = fmt.Fprintf(out, "  %s: %s is unreachable\n", e.ID, urls[i])
	}
	return failed
}
