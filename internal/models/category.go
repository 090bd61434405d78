package models

import "time"

// CategoryName is one member of the fixed category catalog.
type CategoryName string

const (
	CategoryTechnology    CategoryName = "technology"
	CategoryScience       CategoryName = "science"
	CategoryHealth        CategoryName = "health"
	CategoryBusiness      CategoryName = "business"
	CategoryEducation     CategoryName = "education"
	CategoryArts          CategoryName = "arts"
	CategoryPolitics      CategoryName = "politics"
	CategorySports        CategoryName = "sports"
	CategoryEnvironment   CategoryName = "environment"
	CategoryEntertainment CategoryName = "entertainment"
)

// CategoryCatalog lists every category in display order.
var CategoryCatalog = []CategoryName{
	CategoryTechnology,
	CategoryScience,
	CategoryHealth,
	CategoryBusiness,
	CategoryEducation,
	CategoryArts,
	CategoryPolitics,
	CategorySports,
	CategoryEnvironment,
	CategoryEntertainment,
}

var categoryLabels = map[CategoryName]string{
	CategoryTechnology:    "Technology",
	CategoryScience:       "Science",
	CategoryHealth:        "Health & Medicine",
	CategoryBusiness:      "Business & Finance",
	CategoryEducation:     "Education",
	CategoryArts:          "Arts & Culture",
	CategoryPolitics:      "Politics",
	CategorySports:        "Sports",
	CategoryEnvironment:   "Environment",
	CategoryEntertainment: "Entertainment",
}

// Valid reports whether n belongs to the catalog.
func (n CategoryName) Valid() bool {
	_, ok := categoryLabels[n]
	return ok
}

// Label returns the human-readable name of the category.
func (n CategoryName) Label() string {
	if label, ok := categoryLabels[n]; ok {
		return label
	}
	return string(n)
}

// CategoryChoices returns the catalog as plain strings.
func CategoryChoices() []string {
	out := make([]string, len(CategoryCatalog))
	for i, n := range CategoryCatalog {
		out[i] = string(n)
	}
	return out
}

// Category is a persisted catalog entry, created on first use.
type Category struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Name      CategoryName `gorm:"type:varchar(50);not null;uniqueIndex" json:"name"`
	CreatedAt time.Time    `json:"-"`
}

// CategorySummary is a catalog entry with its approved publication count.
type CategorySummary struct {
	Name         CategoryName `json:"name"`
	Label        string       `json:"label"`
	Publications int64        `json:"publications"`
}
