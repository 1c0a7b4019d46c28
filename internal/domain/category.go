package domain

// CategoryCount is a category name with the number of tasks carrying it.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
