package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/atelier/client/internal/content"
)

// servicesPageSize is the server's page size for the services listing.
const servicesPageSize = 12

func newServicesCmd(a *app) *cobra.Command {
	var q content.ServicesQuery
	var listCategories bool

	cmd := &cobra.Command{
		Use:   "services",
		Short: "Browse the service price list",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := content.NewService(a.api, a.log)

			if listCategories {
				categories, err := svc.Categories(cmd.Context())
				if err != nil {
					return err
				}
				for _, c := range categories {
					fmt.Fprintf(cmd.OutOrStdout(), "%4d  %s\n", c.ID, c.Name)
				}
				return nil
			}

			page, err := svc.Services(cmd.Context(), q)
			if err != nil {
				return err
			}
			for _, s := range page.Results {
				price := s.BasePrice.StringFixed(2)
				if s.IsOnSaleForUser && s.PromotionalPrice != nil {
					price = s.PromotionalPrice.StringFixed(2) + " (promo)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%4d  %-40s %12s  %s\n", s.ID, s.Name, price, s.CategoryName)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Page %d of %d (%d services)\n",
				max(q.Page, 1), page.TotalPages(servicesPageSize), page.Count)
			return nil
		},
	}

	cmd.Flags().IntVar(&q.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&q.Category, "category", 0, "filter by category id")
	cmd.Flags().StringVar(&q.Ordering, "ordering", "", "sort field, e.g. base_price or -base_price")
	cmd.Flags().StringVar(&q.Search, "search", "", "search in name and description")
	cmd.Flags().BoolVar(&listCategories, "categories", false, "list categories instead of services")

	return cmd
}

func newPortfolioCmd(a *app) *cobra.Command {
	var recent bool

	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Browse published portfolio projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := content.NewService(a.api, a.log)

			var (
				projects []content.PortfolioProject
				err      error
			)
			if recent {
				projects, err = svc.RecentPortfolio(cmd.Context())
			} else {
				projects, err = svc.Portfolio(cmd.Context())
			}
			if err != nil {
				return err
			}

			for _, p := range projects {
				price := "-"
				if p.Price != nil {
					price = p.Price.StringFixed(2)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%4d  %-40s %12s\n", p.ID, p.ProjectName, price)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&recent, "recent", false, "show only the three most recent projects")
	return cmd
}

func newBlogCmd(a *app) *cobra.Command {
	var recent bool

	cmd := &cobra.Command{
		Use:   "blog [id]",
		Short: "Read the blog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := content.NewService(a.api, a.log)

			if len(args) == 1 {
				id, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid post id %q", args[0])
				}
				post, err := svc.BlogPost(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s · %s\n\n%s\n",
					post.Title, post.PublicationDate, post.AuthorName, post.Content)
				return nil
			}

			var (
				posts []content.BlogPost
				err   error
			)
			if recent {
				posts, err = svc.RecentBlogPosts(cmd.Context())
			} else {
				posts, err = svc.BlogPosts(cmd.Context())
			}
			if err != nil {
				return err
			}
			for _, p := range posts {
				fmt.Fprintf(cmd.OutOrStdout(), "%4d  %s  %s\n", p.ID, p.PublicationDate, p.Title)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&recent, "recent", false, "show only the three latest posts")
	return cmd
}

func newReviewsCmd(a *app) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "Read and publish customer reviews",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := content.NewService(a.api, a.log)
			result, err := svc.Reviews(cmd.Context(), page)
			if err != nil {
				return err
			}
			for _, r := range result.Results {
				fmt.Fprintf(cmd.OutOrStdout(), "%4d  %2d/10  %-20s  %s\n", r.ID, r.Rating, r.User, r.ReviewText)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "page number")

	cmd.AddCommand(newReviewAddCmd(a))
	cmd.AddCommand(newReviewDeleteCmd(a))
	return cmd
}

func newReviewAddCmd(a *app) *cobra.Command {
	var (
		orderID int
		rating  int
		text    string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Publish a review for one of your orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAuth(cmd); err != nil {
				return err
			}
			svc := content.NewService(a.api, a.log)
			if orderID == 0 {
				orders, err := svc.OrdersForReview(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Orders available for review:")
				for _, o := range orders {
					fmt.Fprintf(cmd.OutOrStdout(), "%4d  %s  %s\n", o.ID, o.CreatedAt, o.Car)
				}
				return nil
			}
			if err := svc.CreateReview(cmd.Context(), orderID, rating, text); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Review published")
			return nil
		},
	}

	cmd.Flags().IntVar(&orderID, "order", 0, "order id (omit to list reviewable orders)")
	cmd.Flags().IntVar(&rating, "rating", 10, "rating from 1 to 10")
	cmd.Flags().StringVar(&text, "text", "", "review text")

	return cmd
}

func newReviewDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAuth(cmd); err != nil {
				return err
			}
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid review id %q", args[0])
			}
			if err := content.NewService(a.api, a.log).DeleteReview(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Review deleted")
			return nil
		},
	}
}
