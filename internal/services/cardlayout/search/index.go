// Package search indexes campaign characters for the public character
// search: name contains, exact class and race filters, sorted results.
package search

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/louisbranch/tablecards/internal/layout/domain"
	"github.com/louisbranch/tablecards/internal/platform/otel"
)

// Sort orders search results.
type Sort string

const (
	SortName  Sort = "name"
	SortClass Sort = "class"
	SortRace  Sort = "race"
)

// ParseSort maps a query value to a Sort. Unknown values sort by name.
func ParseSort(value string) Sort {
	switch Sort(strings.ToLower(strings.TrimSpace(value))) {
	case SortClass:
		return SortClass
	case SortRace:
		return SortRace
	default:
		return SortName
	}
}

// Query filters characters of one campaign.
type Query struct {
	CampaignID string
	// Text matches names case-insensitively anywhere in the name.
	Text string
	// Class and Race match exactly when set.
	Class string
	Race  string
	Sort  Sort
}

// document is the indexed form of a character.
type document struct {
	CampaignID string `json:"campaign_id"`
	Name       string `json:"name"`
	NameKey    string `json:"name_key"`
	Class      string `json:"class_name"`
	ClassKey   string `json:"class_key"`
	Race       string `json:"race"`
	RaceKey    string `json:"race_key"`
}

func newDocument(ch domain.Character) document {
	return document{
		CampaignID: ch.CampaignID,
		Name:       ch.Name,
		NameKey:    strings.ToLower(ch.Name),
		Class:      ch.ClassName,
		ClassKey:   strings.ToLower(ch.ClassName),
		Race:       ch.Race,
		RaceKey:    strings.ToLower(ch.Race),
	}
}

func newMapping() mapping.IndexMapping {
	keyword := bleve.NewKeywordFieldMapping()
	text := bleve.NewTextFieldMapping()

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("campaign_id", keyword)
	doc.AddFieldMappingsAt("name", text)
	doc.AddFieldMappingsAt("name_key", keyword)
	doc.AddFieldMappingsAt("class_name", keyword)
	doc.AddFieldMappingsAt("class_key", keyword)
	doc.AddFieldMappingsAt("race", keyword)
	doc.AddFieldMappingsAt("race_key", keyword)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// Index is an in-memory character index. It is safe for concurrent use.
type Index struct {
	index bleve.Index

	mu         sync.RWMutex
	characters map[string]domain.Character
	loaded     map[string]bool
}

// New returns an empty in-memory index.
func New() (*Index, error) {
	idx, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return nil, fmt.Errorf("create search index: %w", err)
	}
	return &Index{
		index:      idx,
		characters: make(map[string]domain.Character),
		loaded:     make(map[string]bool),
	}, nil
}

// Loaded reports whether the characters of campaignID were indexed with
// Replace.
func (i *Index) Loaded(campaignID string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.loaded[campaignID]
}

// Lister lists the characters of a campaign.
type Lister func(ctx context.Context, campaignID string) ([]domain.Character, error)

// EnsureLoaded indexes the characters of campaignID from list unless the
// campaign is already loaded.
func (i *Index) EnsureLoaded(ctx context.Context, campaignID string, list Lister) error {
	if i.Loaded(campaignID) {
		return nil
	}
	characters, err := list(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("list characters for index: %w", err)
	}
	return i.Replace(campaignID, characters)
}

// Put indexes or reindexes one character.
func (i *Index) Put(ch domain.Character) error {
	if strings.TrimSpace(ch.ID) == "" {
		return fmt.Errorf("character id is required")
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.index.Index(ch.ID, newDocument(ch)); err != nil {
		return fmt.Errorf("index character %s: %w", ch.ID, err)
	}
	i.characters[ch.ID] = ch
	return nil
}

// Delete removes a character from the index.
func (i *Index) Delete(characterID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.index.Delete(characterID); err != nil {
		return fmt.Errorf("delete character %s: %w", characterID, err)
	}
	delete(i.characters, characterID)
	return nil
}

// Replace swaps the indexed characters of campaignID for characters and
// marks the campaign loaded.
func (i *Index) Replace(campaignID string, characters []domain.Character) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	batch := i.index.NewBatch()
	for id, ch := range i.characters {
		if ch.CampaignID == campaignID {
			batch.Delete(id)
			delete(i.characters, id)
		}
	}
	for _, ch := range characters {
		if ch.CampaignID != campaignID {
			continue
		}
		if err := batch.Index(ch.ID, newDocument(ch)); err != nil {
			return fmt.Errorf("index character %s: %w", ch.ID, err)
		}
		i.characters[ch.ID] = ch
	}
	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("index campaign %s: %w", campaignID, err)
	}
	i.loaded[campaignID] = true
	return nil
}

// Search returns the characters matching q in q.Sort order. Ties keep a
// stable order by name and then id.
func (i *Index) Search(ctx context.Context, q Query) ([]domain.Character, error) {
	ctx, span := otel.Start(ctx, "search.Search")
	defer span.End()

	i.mu.RLock()
	defer i.mu.RUnlock()

	total := len(i.characters)
	if total == 0 {
		return []domain.Character{}, nil
	}

	conjuncts := []query.Query{termQuery("campaign_id", q.CampaignID)}
	text := strings.ToLower(strings.TrimSpace(q.Text))
	if text != "" {
		wildcard := bleve.NewWildcardQuery("*" + escapeWildcard(text) + "*")
		wildcard.SetField("name_key")
		conjuncts = append(conjuncts, wildcard)
	}
	if class := strings.TrimSpace(q.Class); class != "" {
		conjuncts = append(conjuncts, termQuery("class_name", class))
	}
	if race := strings.TrimSpace(q.Race); race != "" {
		conjuncts = append(conjuncts, termQuery("race", race))
	}

	req := bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(conjuncts...), total, 0, false)
	req.SortBy(sortFields(q.Sort))
	result, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search characters: %w", err)
	}

	out := make([]domain.Character, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ch, ok := i.characters[hit.ID]
		if !ok {
			continue
		}
		// Wildcards in the query text were widened to single-character
		// matches; confirm the literal substring.
		if text != "" && !strings.Contains(strings.ToLower(ch.Name), text) {
			continue
		}
		out = append(out, ch)
	}
	return out, nil
}

// Close releases the index.
func (i *Index) Close() error {
	return i.index.Close()
}

func termQuery(field, term string) query.Query {
	q := bleve.NewTermQuery(term)
	q.SetField(field)
	return q
}

func sortFields(s Sort) []string {
	switch s {
	case SortClass:
		return []string{"class_key", "name_key", "_id"}
	case SortRace:
		return []string{"race_key", "name_key", "_id"}
	default:
		return []string{"name_key", "_id"}
	}
}

func escapeWildcard(text string) string {
	return strings.NewReplacer("*", "?", "?", "?").Replace(text)
}
