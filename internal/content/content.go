// Package content covers the site's catalog and marketing data: the service
// price list with filtering and search, the portfolio, the blog, and
// customer reviews.
package content

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/atelier/client/internal/client"
)

// Category is a service category used for filtering.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ServiceInfo is a service as presented on the services pages.
type ServiceInfo struct {
	ID               int              `json:"id"`
	Name             string           `json:"name"`
	Description      *string          `json:"description"`
	BasePrice        decimal.Decimal  `json:"base_price"`
	PromotionalPrice *decimal.Decimal `json:"promotional_price"`
	CategoryName     string           `json:"category_name"`
	IsOnSaleForUser  bool             `json:"is_on_sale_for_user"`
}

// PortfolioProject is a published portfolio entry.
type PortfolioProject struct {
	ID              int              `json:"id"`
	ProjectName     string           `json:"project_name"`
	WorkDescription string           `json:"work_description"`
	Price           *decimal.Decimal `json:"price"`
	ImageURL        *string          `json:"image_url"`
	IsOwner         bool             `json:"is_owner"`
}

// BlogPost is a blog listing row with truncated content.
type BlogPost struct {
	ID              int     `json:"id"`
	Title           string  `json:"title"`
	ShortContent    string  `json:"short_content"`
	ImageURL        *string `json:"image_url"`
	PublicationDate string  `json:"publication_date"`
}

// BlogPostDetail is a full article.
type BlogPostDetail struct {
	ID              int     `json:"id"`
	Title           string  `json:"title"`
	Content         string  `json:"content"`
	ImageURL        *string `json:"image_url"`
	PublicationDate string  `json:"publication_date"`
	AuthorName      string  `json:"author_name"`
}

// Review is a published customer review.
type Review struct {
	ID         int    `json:"id"`
	User       string `json:"user"`
	UserID     int    `json:"user_id"`
	OrderInfo  string `json:"order_info"`
	Rating     int    `json:"rating"`
	ReviewText string `json:"review_text"`
	ReviewDate string `json:"review_date"`
}

// OrderForReview is an order of the current user that may still be reviewed.
type OrderForReview struct {
	ID        int    `json:"id"`
	Car       string `json:"car"`
	CreatedAt string `json:"created_at"`
}

// ServicesQuery narrows a services listing. Zero values mean "no filter".
type ServicesQuery struct {
	Page     int
	Category int
	Ordering string // e.g. "base_price", "-base_price"
	Search   string
}

// Service fetches content data from the API.
type Service struct {
	api *client.Client
	log *zap.Logger
}

// NewService creates a content service.
func NewService(api *client.Client, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{api: api, log: log}
}

// Categories lists all service categories (unpaginated).
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := s.api.GetJSON(ctx, "/service-categories/", nil, &categories); err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return categories, nil
}

// Services lists the full price list, filtered and paginated.
func (s *Service) Services(ctx context.Context, q ServicesQuery) (client.Page[ServiceInfo], error) {
	query := make(map[string]string)
	if q.Page > 0 {
		query["page"] = strconv.Itoa(q.Page)
	}
	if q.Category != 0 {
		query["category"] = strconv.Itoa(q.Category)
	}
	if q.Ordering != "" {
		query["ordering"] = q.Ordering
	}
	if q.Search != "" {
		query["search"] = q.Search
	}

	var page client.Page[ServiceInfo]
	if err := s.api.GetJSON(ctx, "/services/all/", query, &page); err != nil {
		return client.Page[ServiceInfo]{}, fmt.Errorf("listing services: %w", err)
	}
	return page, nil
}

// Portfolio lists all published portfolio projects.
func (s *Service) Portfolio(ctx context.Context) ([]PortfolioProject, error) {
	var projects []PortfolioProject
	if err := s.api.GetJSON(ctx, "/portfolio/all/", nil, &projects); err != nil {
		return nil, fmt.Errorf("listing portfolio: %w", err)
	}
	return projects, nil
}

// RecentPortfolio returns the three most recent portfolio projects shown on
// the home page.
func (s *Service) RecentPortfolio(ctx context.Context) ([]PortfolioProject, error) {
	var projects []PortfolioProject
	if err := s.api.GetJSON(ctx, "/portfolio/recent/", nil, &projects); err != nil {
		return nil, fmt.Errorf("listing recent portfolio: %w", err)
	}
	return projects, nil
}

// BlogPosts lists all articles, newest first.
func (s *Service) BlogPosts(ctx context.Context) ([]BlogPost, error) {
	var posts []BlogPost
	if err := s.api.GetJSON(ctx, "/blog/all/", nil, &posts); err != nil {
		return nil, fmt.Errorf("listing blog posts: %w", err)
	}
	return posts, nil
}

// RecentBlogPosts returns the three latest articles.
func (s *Service) RecentBlogPosts(ctx context.Context) ([]BlogPost, error) {
	var posts []BlogPost
	if err := s.api.GetJSON(ctx, "/blog/recent/", nil, &posts); err != nil {
		return nil, fmt.Errorf("listing recent blog posts: %w", err)
	}
	return posts, nil
}

// BlogPost fetches one article by id.
func (s *Service) BlogPost(ctx context.Context, id int) (*BlogPostDetail, error) {
	var post BlogPostDetail
	if err := s.api.GetJSON(ctx, fmt.Sprintf("/blog/%d/", id), nil, &post); err != nil {
		return nil, fmt.Errorf("fetching blog post %d: %w", id, err)
	}
	return &post, nil
}

// Reviews lists published reviews.
func (s *Service) Reviews(ctx context.Context, page int) (client.Page[Review], error) {
	var query map[string]string
	if page > 0 {
		query = map[string]string{"page": strconv.Itoa(page)}
	}
	var result client.Page[Review]
	if err := s.api.GetJSON(ctx, "/reviews/", query, &result); err != nil {
		return client.Page[Review]{}, fmt.Errorf("listing reviews: %w", err)
	}
	return result, nil
}

// createReviewRequest is the POST /reviews/ payload.
type createReviewRequest struct {
	Order      int    `json:"order"`
	Rating     int    `json:"rating"`
	ReviewText string `json:"review_text"`
}

// CreateReview publishes a review for one of the caller's own orders.
func (s *Service) CreateReview(ctx context.Context, orderID, rating int, text string) error {
	req := createReviewRequest{Order: orderID, Rating: rating, ReviewText: text}
	if err := s.api.PostJSON(ctx, "/reviews/", req, nil); err != nil {
		return fmt.Errorf("creating review: %w", err)
	}
	s.log.Info("review created", zap.Int("order_id", orderID), zap.Int("rating", rating))
	return nil
}

// DeleteReview removes one of the caller's reviews.
func (s *Service) DeleteReview(ctx context.Context, id int) error {
	if err := s.api.DeleteJSON(ctx, fmt.Sprintf("/reviews/%d/", id)); err != nil {
		return fmt.Errorf("deleting review %d: %w", id, err)
	}
	return nil
}

// OrdersForReview lists the caller's orders that can still be reviewed.
func (s *Service) OrdersForReview(ctx context.Context) ([]OrderForReview, error) {
	var result client.Page[OrderForReview]
	if err := s.api.GetJSON(ctx, "/form-data/my-orders-for-review/", nil, &result); err != nil {
		return nil, fmt.Errorf("listing orders for review: %w", err)
	}
	return result.Results, nil
}
