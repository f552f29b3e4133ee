// Package fetch resolves entity names to canonical identifiers and
// retrieves outbound relationship triples for batches of identifiers,
// backed by the persistent TTL cache.
package fetch

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/linkloom/loom/internal/cache"
	"github.com/linkloom/loom/internal/core/model"
	"github.com/linkloom/loom/internal/driver"
	"github.com/linkloom/loom/internal/sanitize"
)

const entityPrefix = "http://www.wikidata.org/entity/"

const resolveQuery = `SELECT ?item WHERE {
  SERVICE wikibase:mwapi {
    bd:serviceParam wikibase:endpoint "www.wikidata.org";
                    wikibase:api "EntitySearch";
                    mwapi:search "%s";
                    mwapi:language "en".
    ?item wikibase:apiOutputItem mwapi:item.
  }
} LIMIT 1`

const connectionsQuery = `SELECT ?source ?target ?targetLabel ?propLabel ?image ?type ?typeLabel ?isHuman WHERE {
  VALUES ?source { %s }
  ?source ?p ?target .
  ?prop wikibase:directClaim ?p .
  FILTER(STRSTARTS(STR(?target), "%sQ"))
  OPTIONAL { ?target wdt:P18 ?image . }
  OPTIONAL { ?target wdt:P31 ?type . }
  BIND(EXISTS { ?target wdt:P31 wd:Q5 } AS ?isHuman)
  SERVICE wikibase:label {
    bd:serviceParam wikibase:language "en".
    ?target rdfs:label ?targetLabel.
    ?prop rdfs:label ?propLabel.
    ?type rdfs:label ?typeLabel.
  }
} LIMIT %d`

// resolvedEntry is what the resolve namespace stores. Found false is a
// cached "no result", distinct from a cache miss.
type resolvedEntry struct {
	ID    string `json:"id"`
	Found bool   `json:"found"`
}

// Fetcher talks to the triple source through the driver and keeps the
// persistent cache warm. All of its failure paths degrade instead of
// propagating: a failed query yields fewer connections, never an error.
type Fetcher struct {
	driver driver.TripleDriver
	store  *cache.Store
	logger *zap.Logger
}

func NewFetcher(d driver.TripleDriver, store *cache.Store, logger *zap.Logger) *Fetcher {
	return &Fetcher{driver: d, store: store, logger: logger}
}

// ResolveID maps a human-readable name to a canonical identifier.
// Returns false when the name cannot be resolved; query errors are
// logged and treated the same way.
func (f *Fetcher) ResolveID(ctx context.Context, name string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(name))

	var cached resolvedEntry
	if f.store.Get(cache.NamespaceResolve, key, &cached) {
		return cached.ID, cached.Found
	}

	escaped, err := sanitize.Name(name)
	if err != nil {
		f.logger.Warn("unresolvable entity name", zap.String("name", name), zap.Error(err))
		return "", false
	}

	result, err := f.driver.Query(ctx, fmt.Sprintf(resolveQuery, escaped))
	if err != nil {
		// Transient: do not cache, the next attempt may succeed.
		ferr := &model.TransientFetchError{Op: "resolve " + name, Err: err}
		f.logger.Warn("name resolution query failed", zap.Error(ferr))
		return "", false
	}

	if len(result.Rows) == 0 {
		f.store.Set(cache.NamespaceResolve, key, resolvedEntry{Found: false}, cache.ResolveTTL)
		return "", false
	}

	id := entityID(result.Rows[0]["item"])
	if !sanitize.IsValidID(id) {
		f.store.Set(cache.NamespaceResolve, key, resolvedEntry{Found: false}, cache.ResolveTTL)
		return "", false
	}

	f.store.Set(cache.NamespaceResolve, key, resolvedEntry{ID: id, Found: true}, cache.ResolveTTL)
	return id, true
}

// FetchBatch returns the outbound connections for the given
// identifiers, serving cached identifiers from the connection cache and
// covering all uncached ones with a single batched query. On a query
// failure only the cached portion is returned.
func (f *Fetcher) FetchBatch(ctx context.Context, ids []string, resultLimit int) []model.Connection {
	var out []model.Connection
	var uncached []string

	for _, id := range ids {
		var conns []model.Connection
		if f.store.Get(cache.NamespaceConnections, id, &conns) {
			out = append(out, conns...)
			continue
		}
		uncached = append(uncached, id)
	}

	if len(uncached) == 0 {
		return out
	}

	values := make([]string, len(uncached))
	for i, id := range uncached {
		values[i] = "wd:" + id
	}
	query := fmt.Sprintf(connectionsQuery, strings.Join(values, " "), entityPrefix, resultLimit)

	result, err := f.driver.Query(ctx, query)
	if err != nil {
		ferr := &model.TransientFetchError{Op: fmt.Sprintf("fetch batch of %d", len(uncached)), Err: err}
		f.logger.Warn("batch fetch failed, serving cached connections only",
			zap.Int("uncached", len(uncached)), zap.Error(ferr))
		return out
	}

	grouped := make(map[string][]model.Connection, len(uncached))
	for _, id := range uncached {
		grouped[id] = []model.Connection{}
	}

	for _, row := range result.Rows {
		conn := connectionFromRow(row)
		if conn.SourceID == "" || conn.TargetID == "" {
			continue
		}
		grouped[conn.SourceID] = append(grouped[conn.SourceID], conn)
	}

	// Each source's group is cached independently so a later request
	// touching only a subset still hits.
	for id, conns := range grouped {
		f.store.Set(cache.NamespaceConnections, id, conns, cache.ConnectionsTTL)
		out = append(out, conns...)
	}

	return out
}

func connectionFromRow(row driver.Row) model.Connection {
	conn := model.Connection{
		SourceID:    entityID(row["source"]),
		TargetID:    entityID(row["target"]),
		TargetLabel: row["targetLabel"],
		Label:       row["propLabel"],
		Image:       row["image"],
		TypeID:      entityID(row["type"]),
		TypeLabel:   row["typeLabel"],
		IsHuman:     row["isHuman"] == "true" || row["isHuman"] == "1",
	}
	if conn.TargetLabel == "" {
		conn.TargetLabel = conn.TargetID
	}
	conn.Group = groupForType(conn.TypeID, conn.IsHuman)
	return conn
}

// entityID strips the entity URI prefix, leaving the bare identifier.
func entityID(value string) string {
	return strings.TrimPrefix(value, entityPrefix)
}

var typeGroups = map[string]model.NodeGroup{
	// schools
	"Q3918":    model.GroupSchool, // university
	"Q875538":  model.GroupSchool, // public university
	"Q38723":   model.GroupSchool, // higher education institution
	"Q2385804": model.GroupSchool, // educational institution
	"Q9842":    model.GroupSchool, // primary school
	"Q159334":  model.GroupSchool, // secondary school

	// countries
	"Q6256":    model.GroupCountry, // country
	"Q3624078": model.GroupCountry, // sovereign state

	// cities
	"Q515":     model.GroupCity, // city
	"Q1549591": model.GroupCity, // big city
	"Q5119":    model.GroupCity, // capital

	// other locations
	"Q82794":    model.GroupLocation, // geographic region
	"Q56061":    model.GroupLocation, // administrative territorial entity
	"Q17334923": model.GroupLocation, // geographic location

	// companies
	"Q4830453": model.GroupCompany, // business
	"Q783794":  model.GroupCompany, // company
	"Q891723":  model.GroupCompany, // public company

	// organizations
	"Q43229":   model.GroupOrganization, // organization
	"Q484652":  model.GroupOrganization, // international organization
	"Q31855":   model.GroupOrganization, // research institute
	"Q7210356": model.GroupOrganization, // political organization
}

func groupForType(typeID string, isHuman bool) model.NodeGroup {
	if isHuman {
		return model.GroupPerson
	}
	if g, ok := typeGroups[typeID]; ok {
		return g
	}
	return model.GroupConcept
}
