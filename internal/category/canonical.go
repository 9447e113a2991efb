package category

import "strings"

// displayNames maps canonical slugs to the name stored on books.
var displayNames = map[string]string{
	"adventure":          "Adventure",
	"biography":          "Biography",
	"children":           "Children",
	"classic":            "Classic",
	"fantasy":            "Fantasy",
	"fiction":            "Fiction",
	"historical-fiction": "Historical Fiction",
	"history":            "History",
	"horror":             "Horror",
	"mystery":            "Mystery",
	"non-fiction":        "Non-Fiction",
	"philosophy":         "Philosophy",
	"poetry":             "Poetry",
	"romance":            "Romance",
	"science":            "Science",
	"science-fiction":    "Science Fiction",
	"self-help":          "Self-Help",
	"thriller":           "Thriller",
	"young-adult":        "Young Adult",
}

// aliases maps common variants to canonical slugs.
var aliases = map[string]string{
	"sci-fi":              "science-fiction",
	"scifi":               "science-fiction",
	"sf":                  "science-fiction",
	"classics":            "classic",
	"literature":          "fiction",
	"literary-fiction":    "fiction",
	"novel":               "fiction",
	"nonfiction":          "non-fiction",
	"memoir":              "biography",
	"biographies-memoirs": "biography",
	"ya":                  "young-adult",
	"teen":                "young-adult",
	"kids":                "children",
	"childrens":           "children",
	"children-s":          "children",
	"suspense":            "thriller",
	"crime":               "mystery",
	"detective":           "mystery",
	"historical":          "historical-fiction",
	"selfhelp":            "self-help",
	"adventures":          "adventure",
	"scary":               "horror",

	"personal-development": "self-help",
}

// Canonical returns the canonical display name for raw. Unknown categories
// are returned trimmed with their original spelling.
func Canonical(raw string) string {
	raw = strings.TrimSpace(raw)
	slug := Slugify(raw)
	if target, ok := aliases[slug]; ok {
		slug = target
	}
	if name, ok := displayNames[slug]; ok {
		return name
	}
	return raw
}

// CanonicalAll canonicalizes every category, dropping blanks and entries
// that collapse onto an earlier one. Order is preserved.
func CanonicalAll(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		name := Canonical(r)
		if name == "" {
			continue
		}
		key := Slugify(name)
		if key == "" {
			key = strings.ToLower(name)
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Known returns the canonical display names.
func Known() []string {
	out := make([]string, 0, len(displayNames))
	for _, name := range displayNames {
		out = append(out, name)
	}
	return out
}
