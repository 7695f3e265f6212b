package prices

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	pkgerrors "github.com/basketwise/basketwise-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NormalizedPrice is a raw external price record after it passed the parse boundary.
type NormalizedPrice struct {
	StoreID     uuid.UUID
	ProductName string
	Price       decimal.Decimal
	IsOnSale    bool
	ObservedAt  *time.Time
}

// field lists the accepted spellings for one canonical field. Exactly one may be present.
type field struct {
	name     string
	aliases  []string
	required bool
}

var recordFields = []field{
	{name: "store_id", aliases: []string{"store_id", "storeId"}, required: true},
	{name: "product_name", aliases: []string{"product_name", "productName"}, required: true},
	{name: "price", aliases: []string{"price", "Price"}, required: true},
	{name: "is_on_sale", aliases: []string{"is_on_sale", "isOnSale"}},
	{name: "updated_at", aliases: []string{"updated_at", "updatedAt"}},
}

var knownKeys = func() map[string]string {
	out := map[string]string{}
	for _, f := range recordFields {
		for _, alias := range f.aliases {
			out[alias] = f.name
		}
	}
	return out
}()

// NormalizeRecord maps one raw record onto NormalizedPrice. Unknown keys, two
// spellings of the same field, missing required fields and wrongly typed values
// all fail with CodeMalformedRecord. An absent sale flag means not on sale.
func NormalizeRecord(raw map[string]any) (NormalizedPrice, error) {
	var out NormalizedPrice
	if len(raw) == 0 {
		return out, malformed("record is empty", nil)
	}

	var unknown []string
	for key := range raw {
		if _, ok := knownKeys[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return out, malformed("unknown fields", map[string]any{"fields": unknown})
	}

	values := map[string]any{}
	for _, f := range recordFields {
		var seen []string
		for _, alias := range f.aliases {
			if v, ok := raw[alias]; ok {
				seen = append(seen, alias)
				values[f.name] = v
			}
		}
		if len(seen) > 1 {
			return out, malformed("conflicting field spellings", map[string]any{"field": f.name, "keys": seen})
		}
		if len(seen) == 0 && f.required {
			return out, malformed("missing required field", map[string]any{"field": f.name})
		}
	}

	storeID, err := parseStoreID(values["store_id"])
	if err != nil {
		return out, err
	}
	out.StoreID = storeID

	name, ok := values["product_name"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return out, malformed("product_name must be a non-empty string", map[string]any{"field": "product_name"})
	}
	out.ProductName = strings.TrimSpace(name)

	price, err := parsePrice(values["price"])
	if err != nil {
		return out, err
	}
	out.Price = price

	if v, ok := values["is_on_sale"]; ok {
		sale, isBool := v.(bool)
		if !isBool {
			return out, malformed("is_on_sale must be a boolean", map[string]any{"field": "is_on_sale", "type": fmt.Sprintf("%T", v)})
		}
		out.IsOnSale = sale
	}

	if v, ok := values["updated_at"]; ok {
		s, isString := v.(string)
		ts, perr := time.Parse(time.RFC3339, s)
		if !isString || perr != nil {
			return out, malformed("updated_at must be an RFC3339 timestamp", map[string]any{"field": "updated_at"})
		}
		ts = ts.UTC()
		out.ObservedAt = &ts
	}
	return out, nil
}

func parseStoreID(v any) (uuid.UUID, error) {
	s, ok := v.(string)
	if !ok {
		return uuid.Nil, malformed("store_id must be a string", map[string]any{"field": "store_id", "type": fmt.Sprintf("%T", v)})
	}
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, malformed("store_id must be a uuid", map[string]any{"field": "store_id"})
	}
	return id, nil
}

func parsePrice(v any) (decimal.Decimal, error) {
	var (
		d   decimal.Decimal
		err error
	)
	switch typed := v.(type) {
	case float64:
		d = decimal.NewFromFloat(typed)
	case json.Number:
		d, err = decimal.NewFromString(typed.String())
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(typed))
	case int:
		d = decimal.NewFromInt(int64(typed))
	case int64:
		d = decimal.NewFromInt(typed)
	default:
		return d, malformed("price must be a number or numeric string", map[string]any{"field": "price", "type": fmt.Sprintf("%T", v)})
	}
	if err != nil {
		return d, malformed("price is not numeric", map[string]any{"field": "price"})
	}
	if d.IsNegative() {
		return d, malformed("price must not be negative", map[string]any{"field": "price"})
	}
	if !d.Equal(d.Round(2)) {
		return d, malformed("price has more than two decimal places", map[string]any{"field": "price"})
	}
	return d, nil
}

func malformed(msg string, details map[string]any) error {
	err := pkgerrors.New(pkgerrors.CodeMalformedRecord, msg)
	if details != nil {
		err = err.WithDetails(details)
	}
	return err
}
