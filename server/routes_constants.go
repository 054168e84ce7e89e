package server

const (
	RouteAPIShop = "/api/shop"
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"

	contentTypeJSON = "application/json; charset=utf-8"

	// RetryInvalidSessionHeader tells the embedded app's client to fetch a new session token and retry.
	RetryInvalidSessionHeader = "X-Shopify-Retry-Invalid-Session-Request"
)
