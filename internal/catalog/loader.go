package catalog

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/atelier/client/internal/client"
)

// Wire shapes of the /form-data/ endpoints.
type personRow struct {
	ID       int    `json:"id"`
	FullName string `json:"full_name"`
}

type statusRow struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type serviceRow struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	BasePrice decimal.Decimal `json:"base_price"`
}

// Loader fetches the order form's reference lists.
type Loader struct {
	api *client.Client
	log *zap.Logger
}

// NewLoader creates a reference-data loader.
func NewLoader(api *client.Client, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{api: api, log: log}
}

// LoadFormData issues the four reference requests concurrently. A failed
// request leaves its list empty and is only logged: the form must stay
// usable with partial data, and nothing here is retried.
func (l *Loader) LoadFormData(ctx context.Context) FormData {
	var (
		data FormData
		wg   sync.WaitGroup
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		data.Clients = l.loadPeople(ctx, "/form-data/clients/")
	}()
	go func() {
		defer wg.Done()
		data.Statuses = l.loadStatuses(ctx)
	}()
	go func() {
		defer wg.Done()
		data.Performers = l.loadPeople(ctx, "/form-data/performers/")
	}()
	go func() {
		defer wg.Done()
		data.Services = l.loadServices(ctx)
	}()
	wg.Wait()

	return data
}

func (l *Loader) loadPeople(ctx context.Context, path string) []Option {
	var rows []personRow
	if err := l.api.GetJSON(ctx, path, nil, &rows); err != nil {
		l.log.Warn("loading reference list failed", zap.String("path", path), zap.Error(err))
		return nil
	}
	options := make([]Option, 0, len(rows))
	for _, r := range rows {
		options = append(options, Option{ID: r.ID, Label: r.FullName})
	}
	return options
}

func (l *Loader) loadStatuses(ctx context.Context) []Option {
	var rows []statusRow
	if err := l.api.GetJSON(ctx, "/form-data/statuses/", nil, &rows); err != nil {
		l.log.Warn("loading statuses failed", zap.Error(err))
		return nil
	}
	options := make([]Option, 0, len(rows))
	for _, r := range rows {
		options = append(options, Option{ID: r.ID, Label: r.Name})
	}
	return options
}

func (l *Loader) loadServices(ctx context.Context) []Service {
	var rows []serviceRow
	if err := l.api.GetJSON(ctx, "/form-data/services/", nil, &rows); err != nil {
		l.log.Warn("loading services failed", zap.Error(err))
		return nil
	}
	services := make([]Service, 0, len(rows))
	for _, r := range rows {
		services = append(services, Service{ID: r.ID, Name: r.Name, BasePrice: r.BasePrice})
	}
	return services
}
