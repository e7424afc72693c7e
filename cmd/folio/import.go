package main

import (
	"fmt"
	"strings"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/eringen/folio"
	"github.com/eringen/folio/importer"
)

func newImportCmd(c *cli) *cobra.Command {
	var (
		pagesDir string
		rewrite  bool
		mediaURL string
	)
	cmd := &cobra.Command{
		Use:   "import <posts-dir>",
		Short: "Import a markdown vault into the database",
		Long: `import reads <posts-dir>/<topic>/<slug>.md files with YAML front matter
(title, date, excerpt, cover) and upserts them as posts. Pages come from
--pages. With --rewrite-embeds, ![[file]] references whose file exists are
copied to the media directory and replaced by standard markup.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := folio.NewStore(c.cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			logger := log.New("import")
			logger.SetOutput(cmd.ErrOrStderr())
			logger.SetLevel(folio.LogLevel(c.cfg.LogLevel))

			mediaDir := c.cfg.MediaDir
			if mediaDir == "" {
				mediaDir = "data/media"
			}
			res, err := importer.New(store, importer.Options{
				PostsDir:      args[0],
				PagesDir:      pagesDir,
				RewriteEmbeds: rewrite,
				MediaDir:      mediaDir,
				MediaURL:      mediaURL,
				Logger:        logger,
			}).Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d posts, %d pages, %d media files\n", res.Posts, res.Pages, res.Media)
			if len(res.Skipped) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "skipped: %s\n", strings.Join(res.Skipped, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pagesDir, "pages", "", "directory of page .md files")
	cmd.Flags().BoolVar(&rewrite, "rewrite-embeds", false, "copy embedded media and rewrite ![[file]] references")
	cmd.Flags().StringVar(&mediaURL, "media-url", "/media", "public URL prefix of the media directory")
	return cmd
}
