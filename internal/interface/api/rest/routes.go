package rest

const (
	// api
	RouteApiV1 = "/api/v1"

	RouteFiles        = RouteApiV1 + "/files"
	RouteFile         = RouteFiles + "/:file_id"
	RouteFileDownload = RouteFiles + "/download"
	RouteFileShare    = RouteFiles + "/share"
	RouteFileShared   = RouteFiles + "/shared"
	RouteFileEvents   = RouteFiles + "/events"

	// ops
	RouteHealth  = RouteApiV1 + "/healthz"
	RouteMetrics = RouteApiV1 + "/metrics"
)
