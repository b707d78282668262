package catalog

import "strings"

// EffectiveMenu resolves the menu a guest browses: the selected stall's menu
// for food courts, the venue menu otherwise.
func EffectiveMenu(v Venue) []MenuItem {
	if !v.IsFoodCourt() {
		return v.Menu
	}
	if stall, ok := v.Stall(v.CurrentStallID); ok {
		return stall.Menu
	}
	return nil
}

func (f DietaryFilter) Allows(item MenuItem) bool {
	switch f {
	case DietVeg:
		return item.Category == CategoryVeg || item.Category == CategoryDrink
	case DietNonVeg:
		return item.Category == CategoryNonVeg
	default:
		return true
	}
}

func FilterByDiet(items []MenuItem, filter DietaryFilter) []MenuItem {
	out := make([]MenuItem, 0, len(items))
	for _, item := range items {
		if filter.Allows(item) {
			out = append(out, item)
		}
	}
	return out
}

// TagFacets returns the distinct tags of items in first-seen order.
func TagFacets(items []MenuItem) []string {
	seen := make(map[string]struct{})
	tags := make([]string, 0)
	for _, item := range items {
		for _, tag := range item.Tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	return tags
}

// MatchesQuery does a case-insensitive substring match over name,
// description and sub-category. An empty query matches everything.
func MatchesQuery(item MenuItem, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(item.Name), q) ||
		strings.Contains(strings.ToLower(item.Description), q) ||
		strings.Contains(strings.ToLower(item.SubCategory), q)
}

func HasTag(item MenuItem, tag string) bool {
	for _, t := range item.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

type MenuQuery struct {
	Diet  DietaryFilter
	Query string
	Tag   string
}

type SubCategoryGroup struct {
	Name  string     `json:"name"`
	Items []MenuItem `json:"items"`
}

type CategoryGroup struct {
	Category      Category           `json:"category"`
	SubCategories []SubCategoryGroup `json:"subCategories"`
	Count         int                `json:"count"`
}

type MenuView struct {
	Items      []MenuItem      `json:"items"`
	Tags       []string        `json:"tags"`
	Categories []CategoryGroup `json:"categories"`
	Featured   []MenuItem      `json:"featured"`
}

// BuildMenuView applies the dietary filter, then the search query and tag.
// Tag facets are computed over the diet-filtered menu only, so picking a tag
// never hides the other tags.
func BuildMenuView(items []MenuItem, q MenuQuery) MenuView {
	diet := q.Diet
	if !diet.Valid() {
		diet = DietAll
	}
	dietary := FilterByDiet(items, diet)

	view := MenuView{
		Items:    make([]MenuItem, 0, len(dietary)),
		Tags:     TagFacets(dietary),
		Featured: make([]MenuItem, 0),
	}
	for _, item := range dietary {
		if !MatchesQuery(item, q.Query) {
			continue
		}
		if q.Tag != "" && !HasTag(item, q.Tag) {
			continue
		}
		view.Items = append(view.Items, item)
		if item.Featured {
			view.Featured = append(view.Featured, item)
		}
	}
	view.Categories = GroupByCategory(view.Items)
	return view
}

func GroupByCategory(items []MenuItem) []CategoryGroup {
	groups := make([]CategoryGroup, 0, len(Categories))
	for _, cat := range Categories {
		group := CategoryGroup{Category: cat, SubCategories: make([]SubCategoryGroup, 0)}
		index := make(map[string]int)
		for _, item := range items {
			if item.Category != cat {
				continue
			}
			i, ok := index[item.SubCategory]
			if !ok {
				i = len(group.SubCategories)
				index[item.SubCategory] = i
				group.SubCategories = append(group.SubCategories, SubCategoryGroup{Name: item.SubCategory})
			}
			group.SubCategories[i].Items = append(group.SubCategories[i].Items, item)
			group.Count++
		}
		groups = append(groups, group)
	}
	return groups
}

func FindMenuItem(items []MenuItem, id string) (MenuItem, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return MenuItem{}, false
}

func SelectableTables(tables []Table) []Table {
	out := make([]Table, 0, len(tables))
	for _, t := range tables {
		if t.Selectable() {
			out = append(out, t)
		}
	}
	return out
}

// FirstOpenTable is the auto-selection used when a QR code carries no
// usable table code: the first available table that is not locked. Locked
// shared tables stay selectable by hand but are never picked automatically.
func FirstOpenTable(tables []Table) (Table, bool) {
	for _, t := range tables {
		if t.IsAvailable && !t.IsLocked {
			return t, true
		}
	}
	return Table{}, false
}

func FindTable(tables []Table, id string) (Table, bool) {
	for _, t := range tables {
		if t.ID == id {
			return t, true
		}
	}
	return Table{}, false
}
