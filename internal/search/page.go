package search

// PageRequest is a zero-based page index plus a page size.
type PageRequest struct {
	Page int
	Size int
}

// NewPageRequest clamps raw pagination parameters to sane bounds.
func NewPageRequest(page, size int) PageRequest {
	if page < 0 {
		page = 0
	}
	if size < 1 {
		size = 10
	}
	if size > 100 {
		size = 100
	}
	return PageRequest{Page: page, Size: size}
}

func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// PageInfo describes one page of a result set. Everything is derived from
// the total count and the request; nothing is tracked independently.
type PageInfo struct {
	Page          int   `json:"current_page"`
	TotalPages    int   `json:"total_pages"`
	TotalElements int64 `json:"total_elements"`
	Size          int   `json:"page_size"`
	HasNext       bool  `json:"has_next"`
	HasPrevious   bool  `json:"has_previous"`
}

func NewPageInfo(req PageRequest, total int64) PageInfo {
	totalPages := int((total + int64(req.Size) - 1) / int64(req.Size))
	return PageInfo{
		Page:          req.Page,
		TotalPages:    totalPages,
		TotalElements: total,
		Size:          req.Size,
		HasNext:       req.Page+1 < totalPages,
		HasPrevious:   req.Page > 0,
	}
}
