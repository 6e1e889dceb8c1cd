package models

// Entity type tags known to the ENotebook domain. The sync engine does not
// interpret entity payloads; tags are used only for routing, batching and
// selective-sync decisions. New domain types work without changes here.
const (
	EntityTypeMethod     = "method"
	EntityTypeExperiment = "experiment"
	EntityTypeAttachment = "attachment"
)

var entityTypePlurals = map[string]string{
	EntityTypeMethod:     "methods",
	EntityTypeExperiment: "experiments",
	EntityTypeAttachment: "attachments",
}

// EntityTypePlural returns the collection key used by the wire protocol for
// the given entity type tag ("method" -> "methods"). Unknown tags get a plain
// "s" suffix, matching the server's convention for new collections.
func EntityTypePlural(entityType string) string {
	if p, ok := entityTypePlurals[entityType]; ok {
		return p
	}
	return entityType + "s"
}

// EntityTypeSingular is the inverse of [EntityTypePlural].
func EntityTypeSingular(plural string) string {
	for singular, p := range entityTypePlurals {
		if p == plural {
			return singular
		}
	}
	if n := len(plural); n > 1 && plural[n-1] == 's' {
		return plural[:n-1]
	}
	return plural
}
