package domain

import "sort"

// UnknownCategoryName is shown for a favorite category whose name was not
// resolved during the completion that made it the favorite.
const UnknownCategoryName = "Unknown"

type FavoriteCategory struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	Count      int    `json:"count"`
}

type CategoryStats struct {
	Favorite *FavoriteCategory `json:"favorite"`
	Usage    map[string]int    `json:"usage"`
}

// RecordUsage counts one completion in categoryID and recomputes the favorite.
// Only the name of the category just used is known here, so a favorite that
// belongs to another category is reported as UnknownCategoryName.
func (c *CategoryStats) RecordUsage(categoryID, name string) FavoriteCategory {
	if c.Usage == nil {
		c.Usage = make(map[string]int)
	}
	c.Usage[categoryID]++

	ids := make([]string, 0, len(c.Usage))
	for id := range c.Usage {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	best := ""
	bestCount := 0
	for _, id := range ids {
		if count := c.Usage[id]; count > bestCount {
			best, bestCount = id, count
		}
	}

	favorite := FavoriteCategory{CategoryID: best, Name: UnknownCategoryName, Count: bestCount}
	if best == categoryID && name != "" {
		favorite.Name = name
	}
	c.Favorite = &favorite
	return favorite
}
