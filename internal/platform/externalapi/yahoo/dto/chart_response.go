// Package dto defines the wire types of the Yahoo Finance chart API.
package dto

// ChartResponse is the top-level payload of /v8/finance/chart/{symbol}.
type ChartResponse struct {
	Chart Chart `json:"chart"`
}

// Chart carries either a result series or an API error.
type Chart struct {
	Result []Result    `json:"result"`
	Error  *ChartError `json:"error"`
}

// ChartError is the API-level error object.
type ChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Result is one symbol's series. Quote arrays are index-aligned with
// Timestamp; individual elements are null for days without data, hence the
// pointer element type.
type Result struct {
	Meta       Meta       `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators Indicators `json:"indicators"`
}

// Meta describes the returned series.
type Meta struct {
	Currency        string `json:"currency"`
	Symbol          string `json:"symbol"`
	ExchangeName    string `json:"exchangeName"`
	DataGranularity string `json:"dataGranularity"`
}

// Indicators wraps the quote arrays.
type Indicators struct {
	Quote []Quote `json:"quote"`
}

// Quote holds the OHLCV arrays.
type Quote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}
