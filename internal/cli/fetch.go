package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hupe1980/neighbour"
	"github.com/hupe1980/neighbour/fetch"
	"github.com/hupe1980/neighbour/index"
	"github.com/hupe1980/neighbour/loader"
)

func newFetchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download missing artifacts into the data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := a.cfg
			logger := cfg.Logger()

			f := fetch.New(fetchOptions(cfg, logger)...)
			srcs, err := sources(ctx, cfg)
			if err != nil {
				return err
			}
			for scheme, src := range srcs {
				f.Register(scheme, src)
			}

			spec := cfg.Spec()
			names := []string{loader.ArtifactDataset, loader.ArtifactEmbeddings}
			artifacts := map[string]loader.Artifact{
				loader.ArtifactDataset:    spec.Dataset,
				loader.ArtifactEmbeddings: spec.Embeddings,
			}
			if spec.IndexKind == index.KindHNSW {
				names = append(names, loader.ArtifactModel)
				artifacts[loader.ArtifactModel] = spec.Model
			}

			out := cmd.OutOrStdout()
			for _, name := range names {
				art := artifacts[name]
				path := filepath.Join(spec.DataDir, art.File)
				if art.URL == "" {
					fmt.Fprintf(out, "%-10s %s (no url configured)\n", name, path)
					continue
				}
				downloaded, err := f.EnsureLocal(ctx, art.URL, path)
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), neighbour.UserMessage(err))
					return err
				}
				state := "present"
				if downloaded {
					state = "downloaded"
				}
				fmt.Fprintf(out, "%-10s %s (%s)\n", name, path, state)
			}
			return nil
		},
	}
}
