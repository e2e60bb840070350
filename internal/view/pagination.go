package view

// PageSize is the number of listings shown per page in list mode.
const PageSize = 10

type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"pageSize"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	Prev       *int `json:"prev,omitempty"`
	Next       *int `json:"next,omitempty"`
}

// Paginate clamps page into range and reports the bounds of the slice to show.
func Paginate(total, page int) (Pagination, int, int) {
	totalPages := (total + PageSize - 1) / PageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	p := Pagination{
		Page:       page,
		PageSize:   PageSize,
		Total:      total,
		TotalPages: totalPages,
	}
	if page > 1 {
		prev := page - 1
		p.Prev = &prev
	}
	if page < totalPages {
		next := page + 1
		p.Next = &next
	}

	start := (page - 1) * PageSize
	end := start + PageSize
	if end > total {
		end = total
	}
	return p, start, end
}
