package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/eringen/folio/markdown"
)

func newRenderCmd(c *cli) *cobra.Command {
	var topic string
	cmd := &cobra.Command{
		Use:   "render <file|->",
		Short: "Render a markdown file to HTML on stdout",
		Long: `render runs a body through the same pipeline the server uses.
The topic resolves ![[file]] embeds to <topic>/medias/<file>.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var src []byte
			var err error
			if args[0] == "-" {
				src, err = io.ReadAll(cmd.InOrStdin())
			} else {
				src, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			r := markdown.New(c.cfg.RendererOptions()...)
			return r.RenderTo(cmd.OutOrStdout(), string(src), markdown.Context{Topic: topic})
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "", "topic used to resolve vault embeds")
	return cmd
}
