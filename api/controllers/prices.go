package controllers

import (
	"net/http"
	"time"

	"github.com/basketwise/basketwise-backend/api/responses"
	"github.com/basketwise/basketwise-backend/api/validators"
	"github.com/basketwise/basketwise-backend/internal/prices"
	pkgerrors "github.com/basketwise/basketwise-backend/pkg/errors"
	"github.com/basketwise/basketwise-backend/pkg/logger"
)

const (
	maxProductNameChars = 200
	maxBulkRecords      = 5000
)

// ListPrices serves the point lookup (store_id and product_name), the
// cross-store listing for one product, a store's price sheet, or a substring
// search with q. Product names match exactly.
func ListPrices(svc prices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "price service unavailable"))
			return
		}
		storeID, err := validators.ParseQueryUUID(r, "store_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productName := validators.SanitizeString(r.URL.Query().Get("product_name"), maxProductNameChars)
		query := validators.SanitizeString(r.URL.Query().Get("q"), maxSearchQueryChars)

		switch {
		case storeID != nil && productName != "":
			price, err := svc.Get(r.Context(), *storeID, productName)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, price)
		case productName != "":
			list, err := svc.ListByProduct(r.Context(), productName)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, list)
		case storeID != nil:
			list, err := svc.ListByStore(r.Context(), *storeID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, list)
		case query != "":
			list, err := svc.Search(r.Context(), query)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, list)
		default:
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "one of store_id, product_name or q is required"))
		}
	}
}

// PriceHistory lists recorded prices for one product at one store, oldest first.
func PriceHistory(svc prices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "price service unavailable"))
			return
		}
		storeID, err := validators.ParseQueryUUID(r, "store_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if storeID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "store_id is required").WithDetails(map[string]any{"field": "store_id"}))
			return
		}
		productName, err := validators.RequireQuery(r, "product_name", maxProductNameChars)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		days, err := validators.ParseQueryInt(r, "days", 0, 0, 3650)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var since *time.Time
		if days > 0 {
			cutoff := time.Now().UTC().AddDate(0, 0, -days)
			since = &cutoff
		}
		points, err := svc.History(r.Context(), *storeID, productName, since)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, points)
	}
}

// AdminUpsertPrice sets one store's price for a product.
func AdminUpsertPrice(svc prices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "price service unavailable"))
			return
		}
		var payload prices.UpsertPriceInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Upsert(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusOK
		if result.Created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

type bulkPricesRequest struct {
	Records []map[string]any `json:"records" validate:"required,min=1"`
}

type rejectedRecord struct {
	Index   int    `json:"index"`
	Reason  string `json:"reason"`
	Details any    `json:"details,omitempty"`
}

// AdminBulkUpsertPrices applies a batch of raw price records. The batch is all
// or nothing: any malformed record rejects the whole upload.
func AdminBulkUpsertPrices(svc prices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "price service unavailable"))
			return
		}
		var payload bulkPricesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(payload.Records) > maxBulkRecords {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "too many records").
				WithDetails(map[string]any{"max_records": maxBulkRecords, "records": len(payload.Records)}))
			return
		}

		records := make([]prices.NormalizedPrice, 0, len(payload.Records))
		var rejected []rejectedRecord
		for i, raw := range payload.Records {
			rec, err := prices.NormalizeRecord(raw)
			if err != nil {
				rejected = append(rejected, describeRejection(i, err))
				continue
			}
			records = append(records, rec)
		}
		if len(rejected) > 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeMalformedRecord, "bulk upload rejected").
				WithDetails(map[string]any{"rejected": rejected, "records": len(payload.Records)}))
			return
		}

		result, err := svc.BulkUpsert(r.Context(), records)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func describeRejection(index int, err error) rejectedRecord {
	out := rejectedRecord{Index: index, Reason: err.Error()}
	if typed := pkgerrors.As(err); typed != nil {
		out.Reason = typed.Message()
		out.Details = typed.Details()
	}
	return out
}
