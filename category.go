package machinegen

import "strings"

// Category buckets a machine into one of five service families. The category
// drives default context fields, guards, actors, validation heuristics, and
// the output directory layout.
type Category string

const (
	CategoryInfo    Category = "info"
	CategoryUser    Category = "user"
	CategoryAgent   Category = "agent"
	CategoryAccount Category = "account"
	CategoryCore    Category = "core"
)

// DefaultCategory applies when a diagram carries no recognizable class tag.
const DefaultCategory = CategoryUser

// Categories lists the closed category set in detection order.
func Categories() []Category {
	return []Category{CategoryInfo, CategoryUser, CategoryAgent, CategoryAccount, CategoryCore}
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	switch c {
	case CategoryInfo, CategoryUser, CategoryAgent, CategoryAccount, CategoryCore:
		return true
	}
	return false
}

// Subdir maps the category to its fixed output subdirectory.
func (c Category) Subdir() string {
	switch c {
	case CategoryInfo:
		return "information"
	case CategoryAgent:
		return "agent"
	case CategoryCore:
		return "core"
	default:
		return "user-services"
	}
}

// CategoryFromTag resolves a style class tag such as "agent-machine" to a
// category. Tags match by substring, tested in detection order, so a tag
// naming several categories resolves to the earliest one.
func CategoryFromTag(tag string) (Category, bool) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return "", false
	}
	for _, c := range Categories() {
		if strings.Contains(tag, string(c)) {
			return c, true
		}
	}
	return "", false
}
