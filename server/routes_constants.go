package server

// Route path constants
const (
	// Token routes
	RouteToken   = "/api/tiktok/token"
	RouteRefresh = "/api/tiktok/refresh"

	// QR login routes
	RouteQRCodeGet   = "/api/tiktok/qrcode/get"
	RouteQRCodeCheck = "/api/tiktok/qrcode/check"

	// Generic provider proxy
	RouteProxyPrefix = "/api/tiktok/"
	RouteProxy       = RouteProxyPrefix + "{path...}"

	// Trend data
	RouteTrendingHashtags = "/api/trending/hashtags"
	RouteTrendingSongs    = "/api/trending/songs"

	RouteHealth    = "/api/health"
	RouteMetrics   = "/metrics"
	RoutePreflight = "/api/{path...}"
)
