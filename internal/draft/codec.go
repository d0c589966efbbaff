package draft

import (
	"encoding/json"
	"fmt"

	"expenseportal/internal/core"
)

// The draft's item list is serialized as a single JSON blob in the expenses
// cell. (De)serialization and validation live here and nowhere else, so the
// storage format can change without touching the store's contract.

type itemJSON struct {
	ID          *int64       `json:"id"`
	Date        *string      `json:"date"`
	Category    *string      `json:"category"`
	Vendor      *string      `json:"vendor"`
	Description *string      `json:"description"`
	Amount      *json.Number `json:"amount"`
}

func encodeItems(items []core.LineItem) (string, error) {
	out := make([]itemJSON, len(items))
	for i, li := range items {
		id := li.LocalID
		date := li.Date.String()
		category := li.Category
		vendor := li.Vendor
		description := li.Description
		amount := json.Number(li.Amount.String())
		out[i] = itemJSON{
			ID:          &id,
			Date:        &date,
			Category:    &category,
			Vendor:      &vendor,
			Description: &description,
			Amount:      &amount,
		}
	}
	blob, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode draft items: %w", err)
	}
	return string(blob), nil
}

// decodeItems parses and validates the blob. Every item must carry every
// required field with the right type; any violation yields ErrCorruptDraft.
func decodeItems(blob string) ([]core.LineItem, error) {
	if blob == "" {
		return nil, nil
	}
	var raw []itemJSON
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrCorruptDraft, err)
	}
	items := make([]core.LineItem, 0, len(raw))
	for i, r := range raw {
		if r.ID == nil || r.Date == nil || r.Category == nil || r.Vendor == nil ||
			r.Description == nil || r.Amount == nil {
			return nil, fmt.Errorf("%w: item %d missing required fields", core.ErrCorruptDraft, i)
		}
		date, err := core.ParseDate(*r.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", core.ErrCorruptDraft, i, err)
		}
		amount, err := core.ParseMoney(r.Amount.String())
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", core.ErrCorruptDraft, i, err)
		}
		li := core.LineItem{
			LocalID:     *r.ID,
			Date:        date,
			Category:    *r.Category,
			Vendor:      *r.Vendor,
			Description: *r.Description,
			Amount:      amount,
		}
		if err := li.Validate(); err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", core.ErrCorruptDraft, i, err)
		}
		items = append(items, li)
	}
	return items, nil
}
