package catapi

// Endpoint is a path relative to the configured API base URL.
type Endpoint string

const (
	EndpointGetImages      Endpoint = "images/get"
	EndpointVote           Endpoint = "images/vote"
	EndpointFavourite      Endpoint = "images/favourite"
	EndpointGetFavourites  Endpoint = "images/getfavourites"
	EndpointReport         Endpoint = "images/report"
	EndpointListCategories Endpoint = "categories/list"
	EndpointGetStats       Endpoint = "stats/getoverview"
)

const (
	ParamResultsPerPage = "results_per_page"
	ParamFormat         = "format"
	ParamType           = "type"
	ParamSize           = "size"
	ParamImageID        = "image_id"
	ParamCategory       = "category"
	ParamSubID          = "sub_id"
	ParamScore          = "score"
	ParamAction         = "action"
	ParamReason         = "reason"
	ParamApiKey         = "api_key"
)

const (
	MinResultsPerPage = 1
	MaxResultsPerPage = 100

	MinScore = 1
	MaxScore = 10

	formatXML = "xml"
)
