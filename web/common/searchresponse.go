package common

type Pagination struct {
	Total int64 `json:"total"`
}

// SearchResponse wraps list endpoints that cap their page (e.g. the raw
// punch log) so callers can tell a full page from the full result.
type SearchResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

func NewSearchResponse(data interface{}, total int64) *SearchResponse {
	return &SearchResponse{
		Data: data,
		Pagination: Pagination{
			Total: total,
		},
	}
}
