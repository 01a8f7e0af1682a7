package category

// CategoryResponse describes one category for pickers and filters.
type CategoryResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CategoriesResponse struct {
	Categories []CategoryResponse `json:"categories"`
	Count      int                `json:"count"`
}

func NewCategoriesResponse(categories []Category) CategoriesResponse {
	items := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		items = append(items, CategoryResponse{
			Name:        string(c),
			Description: c.Description(),
		})
	}
	return CategoriesResponse{Categories: items, Count: len(items)}
}
