package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/basketwise/basketwise-backend/api/responses"
	"github.com/basketwise/basketwise-backend/internal/refresh"
	pkgerrors "github.com/basketwise/basketwise-backend/pkg/errors"
	"github.com/basketwise/basketwise-backend/pkg/logger"
)

// RefreshRunner is the admin surface of the price refresh runner.
type RefreshRunner interface {
	Trigger(ctx context.Context) (*refresh.Report, error)
	Status(ctx context.Context) refresh.Status
}

// AdminRunRefresh runs a price refresh synchronously and returns its report.
func AdminRunRefresh(runner RefreshRunner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if runner == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "price refresh is not configured"))
			return
		}
		report, err := runner.Trigger(r.Context())
		if errors.Is(err, refresh.ErrAlreadyRunning) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "price refresh already running"))
			return
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

func AdminRefreshStatus(runner RefreshRunner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if runner == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "price refresh is not configured"))
			return
		}
		responses.WriteSuccess(w, runner.Status(r.Context()))
	}
}
