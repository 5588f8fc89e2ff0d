package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/eringen/folio"
	"github.com/eringen/folio/content"
)

func newPostsCommand(opts *options) *cobra.Command {
	var sortBy, category, search string
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List normalized posts from the configured content source",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closer, err := folio.NewRepository(opts.cfg, opts.logger())
			if err != nil {
				return err
			}
			if closer != nil {
				defer closer.Close()
			}
			ctx := cmd.Context()

			var posts []content.Post
			switch {
			case search != "":
				posts = repo.Search(ctx, search)
			case category != "":
				posts = repo.ByCategory(ctx, category)
			default:
				posts = repo.LoadAll(ctx)
			}
			posts = content.Sorted(posts, content.ParseSortBy(sortBy))

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Date", "Slug", "Title", "Category", "Min", "Views", "Likes"})
			for _, p := range posts {
				t.AppendRow(table.Row{p.Date, p.Slug, p.Title, p.Category, p.ReadingTime, p.Views, p.Likes})
			}
			t.AppendFooter(table.Row{"", "", "", "", "", "Total", len(posts)})
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort", "date", "order by date, views or likes")
	cmd.Flags().StringVar(&category, "category", "", "only posts in this category")
	cmd.Flags().StringVar(&search, "search", "", "only posts matching this query")
	return cmd
}
