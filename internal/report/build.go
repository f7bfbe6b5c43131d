package report

import (
	"context"
	"time"

	"smart-dashboard/internal/models"
	"smart-dashboard/internal/services"
	"smart-dashboard/internal/signals"
)

// FromDashboard gathers every section from the dashboard's current tables.
// Sections that cannot be produced, such as a forecast over too little data,
// are left out.
func FromDashboard(ctx context.Context, d *services.Dashboard, spec models.FilterSpec, external bool) (Input, error) {
	view, err := d.View(spec)
	if err != nil {
		return Input{}, err
	}

	in := Input{
		GeneratedAt: time.Now(),
		Filters:     spec,
		Summary:     view.Summary,
		Products:    view.Products,
	}

	if in.Restock, err = d.Restock(spec, services.AllRows); err != nil {
		return Input{}, err
	}

	insights, err := d.Insights(ctx, spec, external, signals.Request{})
	if err != nil {
		return Input{}, err
	}
	in.Insights = &insights

	if d.HasStock() {
		if in.Stock, err = d.Stock(nil, -1); err != nil {
			return Input{}, err
		}
	}

	if fc, err := d.Forecast(ctx, spec, "", 0); err == nil {
		in.Forecast = fc
	}
	return in, nil
}
