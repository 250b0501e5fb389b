package response

// Response is the envelope of every JSON body the API returns
type Response struct {
	Status     string      `json:"status"` // "success" or "error"
	StatusCode int         `json:"status_code"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Details    interface{} `json:"details,omitempty"`
}

// Page wraps one page of a listing
type Page struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
	Pages int64       `json:"pages"`
}

func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

func Error(statusCode int, message string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      message,
	}
}

// ErrorWithDetails attaches machine-readable context such as the product
// that ran out of stock.
func ErrorWithDetails(statusCode int, message string, details interface{}) Response {
	r := Error(statusCode, message)
	r.Details = details
	return r
}

// Paged builds a success envelope around a page of items.
func Paged(statusCode int, items interface{}, total int64, page, limit int) Response {
	var pages int64
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return Success(statusCode, Page{Items: items, Total: total, Page: page, Limit: limit, Pages: pages})
}
