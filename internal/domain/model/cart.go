package model

// CartLineView is one line item of the order-facing cart view.
type CartLineView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LinePrice   string `json:"line_price"`
}

// CartView is the derived, read-only order view. It is recomputed from the
// backend cart on every render; prices stay exactly as the backend formatted
// them.
type CartView struct {
	TotalPrice string         `json:"total_price"`
	Lines      []CartLineView `json:"lines"`
}

func (v CartView) Empty() bool { return len(v.Lines) == 0 }
