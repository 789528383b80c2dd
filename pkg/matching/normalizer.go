package matching

import (
	"strings"
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// UnknownField is the sentinel for fields that are missing or unrecognized.
// Downstream scoring always has a defined comparison because of it.
const UnknownField = "unknown"

// NormalizedItem is the comparable form of an item report
type NormalizedItem struct {
	Description string
	Tokens      []string
	Category    string
	Location    string
	Zone        string
	EventDate   time.Time
}

// categoryAliases maps raw category values to canonical category keys
var categoryAliases = map[string]string{
	"wallet":      "wallet",
	"purse":       "wallet",
	"billfold":    "wallet",
	"phone":       "phone",
	"cellphone":   "phone",
	"smartphone":  "phone",
	"mobile":      "phone",
	"keys":        "keys",
	"key":         "keys",
	"keychain":    "keys",
	"bag":         "bag",
	"backpack":    "bag",
	"handbag":     "bag",
	"luggage":     "bag",
	"laptop":      "electronics",
	"tablet":      "electronics",
	"headphones":  "electronics",
	"earbuds":     "electronics",
	"electronics": "electronics",
	"charger":     "electronics",
	"jacket":      "clothing",
	"coat":        "clothing",
	"hat":         "clothing",
	"scarf":       "clothing",
	"gloves":      "clothing",
	"clothing":    "clothing",
	"glasses":     "eyewear",
	"sunglasses":  "eyewear",
	"eyewear":     "eyewear",
	"watch":       "jewelry",
	"ring":        "jewelry",
	"necklace":    "jewelry",
	"bracelet":    "jewelry",
	"jewelry":     "jewelry",
	"id":          "documents",
	"passport":    "documents",
	"card":        "documents",
	"documents":   "documents",
	"document":    "documents",
	"book":        "books",
	"books":       "books",
	"notebook":    "books",
	"umbrella":    "accessories",
	"bottle":      "accessories",
	"accessories": "accessories",
}

// locationAliases maps raw location labels to canonical location keys
var locationAliases = map[string]string{
	"library":         "library",
	"main library":    "library",
	"classroom":       "classroom",
	"lecture hall":    "classroom",
	"lab":             "classroom",
	"gym":             "gym",
	"gymnasium":       "gym",
	"fitness center":  "gym",
	"pool":            "pool",
	"cafeteria":       "cafeteria",
	"dining hall":     "cafeteria",
	"food court":      "cafeteria",
	"parking lot":     "parking",
	"parking":         "parking",
	"garage":          "parking",
	"bus stop":        "transit",
	"station":         "transit",
	"dorm":            "dorm",
	"dormitory":       "dorm",
	"residence hall":  "dorm",
	"student center":  "commons",
	"commons":         "commons",
	"lounge":          "commons",
	"auditorium":      "auditorium",
	"theater":         "auditorium",
	"field":           "field",
	"stadium":         "field",
	"office":          "office",
	"admin building":  "office",
	"reception":       "office",
}

// locationZones maps canonical locations to their broader zone, when one is known
var locationZones = map[string]string{
	"library":    "academic",
	"classroom":  "academic",
	"auditorium": "academic",
	"gym":        "recreation",
	"pool":       "recreation",
	"field":      "recreation",
	"cafeteria":  "commons",
	"commons":    "commons",
	"parking":    "outdoor",
	"transit":    "outdoor",
	"dorm":       "residential",
	"office":     "administrative",
}

// Normalize canonicalizes a raw item record into its comparable form.
// Pure function; missing fields normalize to the unknown sentinel rather
// than erroring.
func Normalize(item *models.ItemRecord) NormalizedItem {
	n := NormalizedItem{
		Category: UnknownField,
		Location: UnknownField,
	}
	if item == nil {
		return n
	}

	n.Description = normalizers.NormalizeDescription(item.Description)
	n.Tokens = normalizers.Tokenize(item.Description)

	n.Category = canonicalCategory(item.Category)
	n.Location, n.Zone = canonicalLocation(item.Location)

	if !item.EventDate.IsZero() {
		n.EventDate = item.EventDate.UTC().Truncate(24 * time.Hour)
	}

	return n
}

// MergeExtracted layers AI-extracted attributes over the normalized form.
// Extracted values take precedence when present and non-empty; color and
// brand extend the token set so text overlap can see them.
func MergeExtracted(n NormalizedItem, attrs *models.ExtractedAttributes) NormalizedItem {
	if attrs.IsEmpty() {
		return n
	}

	if attrs.Category != "" {
		n.Category = canonicalCategory(attrs.Category)
	}
	if attrs.Location != "" {
		n.Location, n.Zone = canonicalLocation(attrs.Location)
	}

	for _, extra := range []string{attrs.Color, attrs.Brand} {
		token := normalizers.NormalizeDescription(extra)
		if token == "" {
			continue
		}
		if !containsToken(n.Tokens, token) {
			n.Tokens = append(n.Tokens, token)
		}
	}

	return n
}

// canonicalCategory maps a raw category to its canonical key. Unrecognized
// categories pass through as a single normalized token.
func canonicalCategory(raw string) string {
	value := normalizers.NormalizeDescription(raw)
	if value == "" {
		return UnknownField
	}
	if canon, ok := categoryAliases[value]; ok {
		return canon
	}
	return strings.ReplaceAll(value, " ", "_")
}

// canonicalLocation maps a raw location label to a canonical key and its zone,
// falling back to the raw trimmed string when no alias matches.
func canonicalLocation(raw string) (string, string) {
	value := normalizers.NormalizeDescription(raw)
	if value == "" {
		return UnknownField, ""
	}
	if canon, ok := locationAliases[value]; ok {
		return canon, locationZones[canon]
	}
	return value, ""
}

func containsToken(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}
