package biomass

import "strings"

// fallbackEntry is what Resolve hands back when nothing matches.
var fallbackEntry = Entry{
	ForestType:        "Mixed Forest",
	BiomassPerHectare: DefaultBiomassPerHectare,
	Source:            "FAO FRA 2020 mixed forest average",
	Year:              2020,
}

func normalize(label string) string {
	return strings.ToLower(strings.Join(strings.Fields(label), " "))
}

// Resolve maps a forest-type label to a reference entry. Matching is
// case-insensitive and tries, in order: exact label, legacy alias chain,
// substring containment in either direction. When nothing matches it returns
// the mixed-forest fallback entry with ok=false, so callers that only need a
// number never fail while callers that need provenance can tell the difference.
func Resolve(label string) (Entry, Match, bool) {
	key := normalize(label)
	if key == "" {
		return fallbackEntry, MatchFallback, false
	}

	if e, ok := byType[key]; ok {
		return *e, MatchExact, true
	}

	// Alias values may themselves be aliases; bound the walk so a bad table
	// edit cannot loop. A chain that never reaches a canonical row falls
	// through to partial matching with the rewritten label.
	for hops := 0; hops < len(aliases); hops++ {
		next, ok := aliases[key]
		if !ok {
			break
		}
		key = normalize(next)
		if e, ok := byType[key]; ok {
			return *e, MatchAlias, true
		}
	}

	for i := range entries {
		canonical := normalize(entries[i].ForestType)
		if strings.Contains(canonical, key) || strings.Contains(key, canonical) {
			return entries[i], MatchPartial, true
		}
	}

	return fallbackEntry, MatchFallback, false
}

// BiomassPerHectare returns the biomass density for a forest-type label in
// tonnes per hectare. Unknown labels degrade to the mixed-forest average
// rather than failing.
func BiomassPerHectare(label string) float64 {
	e, _, _ := Resolve(label)
	return e.BiomassPerHectare
}

// Data returns the full reference entry for a label, or nil when the label
// matches nothing. Unlike BiomassPerHectare it does not fall back.
func Data(label string) *Entry {
	e, _, ok := Resolve(label)
	if !ok {
		return nil
	}
	return &e
}

// Entries returns a copy of the reference table in its canonical order.
func Entries() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
