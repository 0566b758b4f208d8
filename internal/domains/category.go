package domains

// Category classifies the domain behind a citation.
type Category string

const (
	CategoryOwned      Category = "owned"
	CategoryNews       Category = "news"
	CategoryExchange   Category = "exchange"
	CategoryVideo      Category = "video"
	CategorySocial     Category = "social"
	CategoryDeveloper  Category = "developer"
	CategoryReference  Category = "reference"
	CategoryAggregator Category = "aggregator"
	CategoryBlog       Category = "blog"
	CategoryUnknown    Category = "unknown"
)

var validCategories = map[Category]struct{}{
	CategoryOwned:      {},
	CategoryNews:       {},
	CategoryExchange:   {},
	CategoryVideo:      {},
	CategorySocial:     {},
	CategoryDeveloper:  {},
	CategoryReference:  {},
	CategoryAggregator: {},
	CategoryBlog:       {},
	CategoryUnknown:    {},
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := validCategories[c]
	return ok
}

func (c Category) String() string { return string(c) }
