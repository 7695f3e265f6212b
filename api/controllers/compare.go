package controllers

import (
	"context"
	"net/http"

	"github.com/basketwise/basketwise-backend/api/middleware"
	"github.com/basketwise/basketwise-backend/api/responses"
	"github.com/basketwise/basketwise-backend/api/validators"
	"github.com/basketwise/basketwise-backend/internal/comparison"
	"github.com/basketwise/basketwise-backend/internal/lists"
	pkgerrors "github.com/basketwise/basketwise-backend/pkg/errors"
	"github.com/basketwise/basketwise-backend/pkg/logger"
)

type compareOptions struct {
	MaxDistance *float64 `json:"max_distance"`
	Sort        string   `json:"sort"`
	RequireAll  bool     `json:"require_all"`
}

type compareRequest struct {
	ListItems []comparison.Item `json:"list_items"`
	compareOptions
}

type compareResponse struct {
	Breakdowns []comparison.StorePriceBreakdown `json:"breakdowns"`
	Summary    comparison.Summary               `json:"summary"`
}

type compareMeta struct {
	comparison.Diagnostics
	Sort comparison.SortKey `json:"sort"`
	// Incomplete counts stores hidden by require_all.
	Incomplete int `json:"incomplete_stores"`
}

// Compare prices an ad-hoc shopping list at every store within max_distance.
func Compare(comparer comparison.Comparer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if comparer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "comparison unavailable"))
			return
		}
		var payload compareRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeComparison(r.Context(), w, logg, comparer, payload.ListItems, payload.compareOptions)
	}
}

// CompareList runs the comparison for one of the caller's saved lists.
func CompareList(svc lists.Service, comparer comparison.Comparer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || comparer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "comparison unavailable"))
			return
		}
		listID, err := validators.ParseURLParamUUID(r, "listId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var opts compareOptions
		if err := validators.DecodeJSONBody(r, &opts); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.ComparisonItems(r.Context(), middleware.UserIDFromContext(r.Context()), listID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeComparison(r.Context(), w, logg, comparer, items, opts)
	}
}

func writeComparison(ctx context.Context, w http.ResponseWriter, logg *logger.Logger, comparer comparison.Comparer, items []comparison.Item, opts compareOptions) {
	sortKey, ok := comparison.ParseSortKey(opts.Sort)
	if !ok {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown sort key").
			WithDetails(map[string]any{"field": "sort"}))
		return
	}
	result, err := comparer.Compare(ctx, items, opts.MaxDistance)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}

	breakdowns := make([]comparison.StorePriceBreakdown, len(result.Breakdowns))
	copy(breakdowns, result.Breakdowns)
	if opts.RequireAll {
		breakdowns = comparison.FilterComplete(breakdowns)
	}
	comparison.Sort(breakdowns, sortKey)

	responses.WriteSuccessWithMeta(w,
		compareResponse{
			Breakdowns: breakdowns,
			Summary:    comparison.Summarize(breakdowns),
		},
		compareMeta{
			Diagnostics: result.Diagnostics,
			Sort:        sortKey,
			Incomplete:  len(result.Breakdowns) - len(breakdowns),
		},
	)
}
