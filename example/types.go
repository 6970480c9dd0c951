package example

//go:generate go run ../cmd/magnetgen adapter -p example -o items_magnet.go items.yaml

// Item is the resource managed by the items service.
type Item struct {
	ID    int      `json:"id"`
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Tags  []string `json:"tags,omitempty"`
}

// SearchResult is returned by Items.Search.
type SearchResult struct {
	Query string  `json:"query"`
	Items []*Item `json:"items"`
}

// Rating is sent as a form by Items.Rate.
type Rating struct {
	Stars   int    `form:"stars"`
	Comment string `form:"comment"`
}

// Upload describes files received by Items.UploadPhoto.
type Upload struct {
	Files map[string]int `json:"files"`
}
