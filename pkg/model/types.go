package model

// ProductSnapshot is the result of one product lookup.
type ProductSnapshot struct {
	ASIN          string  `json:"asin"`
	Title         string  `json:"title"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency,omitempty"`
	DetailPageURL string  `json:"detail_page_url,omitempty"`
}

// Triggered reports whether the price is at or below target.
func (s ProductSnapshot) Triggered(target float64) bool {
	return s.Price <= target
}

// Shortfall returns how far the price is above target, or zero when it is not.
func (s ProductSnapshot) Shortfall(target float64) float64 {
	if s.Price <= target {
		return 0
	}
	return s.Price - target
}

// NotificationResult is the outcome of one notifier call.
type NotificationResult struct {
	Notifier string `json:"notifier"`
	ID       string `json:"id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Outcome summarizes a single price check.
type Outcome struct {
	Snapshot      ProductSnapshot      `json:"snapshot"`
	TargetPrice   float64              `json:"target_price"`
	Triggered     bool                 `json:"triggered"`
	Shortfall     float64              `json:"shortfall"`
	Notifications []NotificationResult `json:"notifications,omitempty"`
}
