package response

type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int64 `json:"total_pages"`
	TotalItems int64 `json:"total_items"`
	HasMore    bool  `json:"has_more"`
	From       int   `json:"from"`
	To         int   `json:"to"`
}

// FirstPage describes the first pageSize rows of total. The leaderboard only
// ever serves its top slice, so Page is always 1.
func FirstPage(pageSize, returned, total int) *Pagination {
	if pageSize <= 0 {
		pageSize = total
	}
	var pages int64
	if pageSize > 0 {
		pages = int64((total + pageSize - 1) / pageSize)
	}
	p := &Pagination{
		Page:       1,
		PageSize:   pageSize,
		TotalPages: pages,
		TotalItems: int64(total),
		HasMore:    returned < total,
	}
	if returned > 0 {
		p.From = 1
		p.To = returned
	}
	return p
}
