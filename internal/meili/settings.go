package meili

import (
	"context"
	"fmt"
	"net/http"

	"github.com/msc-search/harvester/internal/core/ports/driven"
)

// ApplySettings declares the index's displayed, searchable, filterable
// and sortable attribute sets and its synonym dictionary. Each call is
// idempotent; this runs once per index lifetime, not per harvest.
func (c *Client) ApplySettings(ctx context.Context, settings driven.IndexSettings) error {
	attributeSets := []struct {
		path   string
		values []string
	}{
		{"displayed-attributes", settings.Displayed},
		{"searchable-attributes", settings.Searchable},
		{"filterable-attributes", settings.Filterable},
		{"sortable-attributes", settings.Sortable},
	}

	for _, set := range attributeSets {
		if len(set.values) == 0 {
			continue
		}
		path := fmt.Sprintf("/indexes/%s/settings/%s", c.index, set.path)
		var task taskResponse
		if err := c.do(ctx, http.MethodPut, path, set.values, &task); err != nil {
			return fmt.Errorf("update %s: %w", set.path, err)
		}
	}

	if len(settings.Synonyms) > 0 {
		path := fmt.Sprintf("/indexes/%s/settings/synonyms", c.index)
		var task taskResponse
		if err := c.do(ctx, http.MethodPut, path, settings.Synonyms, &task); err != nil {
			return fmt.Errorf("update synonyms: %w", err)
		}
	}

	return nil
}
