// Package catalog holds the display tables of the registry: furniture names, the rooms
// they belong to and category blurbs. Tables are fixed once built.
package catalog

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
)

const defaultDescription = "Item especial para nosso lar"

// Catalog is immutable after construction.
type Catalog struct {
	furniture    map[string]string
	rooms        map[string][]string
	descriptions map[string]string
	fallbackDesc string
}

// Tables is the JSON shape accepted by Load.
type Tables struct {
	Furniture          map[string]string   `json:"furniture"`
	Rooms              map[string][]string `json:"rooms"`
	Descriptions       map[string]string   `json:"descriptions"`
	DefaultDescription string              `json:"defaultDescription"`
}

// New copies the tables. Lookups are case-insensitive.
func New(t Tables) *Catalog {
	c := &Catalog{
		furniture:    lowerKeys(t.Furniture),
		rooms:        make(map[string][]string, len(t.Rooms)),
		descriptions: lowerKeys(t.Descriptions),
		fallbackDesc: t.DefaultDescription,
	}
	for room, keys := range t.Rooms {
		c.rooms[room] = slices.Clone(keys)
	}
	if c.fallbackDesc == "" {
		c.fallbackDesc = defaultDescription
	}
	return c
}

// Load reads tables from a JSON file; missing sections keep the defaults.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	t := DefaultTables()
	var override Tables
	if err := json.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	if override.Furniture != nil {
		t.Furniture = override.Furniture
	}
	if override.Rooms != nil {
		t.Rooms = override.Rooms
	}
	if override.Descriptions != nil {
		t.Descriptions = override.Descriptions
	}
	if override.DefaultDescription != "" {
		t.DefaultDescription = override.DefaultDescription
	}
	return New(t), nil
}

// Default is the catalog of the original site.
func Default() *Catalog {
	return New(DefaultTables())
}

// Name returns the display name of a furniture key or category, or the key itself.
func (c *Catalog) Name(key string) string {
	if n, ok := c.furniture[strings.ToLower(strings.TrimSpace(key))]; ok {
		return n
	}
	return key
}

// Description returns the blurb of a category.
func (c *Catalog) Description(category string) string {
	if d, ok := c.descriptions[strings.ToLower(strings.TrimSpace(category))]; ok {
		return d
	}
	return c.fallbackDesc
}

// Rooms lists room names in alphabetical order.
func (c *Catalog) Rooms() []string {
	return slices.Sorted(maps.Keys(c.rooms))
}

// RoomFurniture lists the furniture keys of a room.
func (c *Catalog) RoomFurniture(room string) []string {
	return slices.Clone(c.rooms[room])
}

// RoomOf returns the first room (alphabetically) that contains the furniture key.
func (c *Catalog) RoomOf(key string) (string, bool) {
	for _, room := range c.Rooms() {
		for _, k := range c.rooms[room] {
			if strings.EqualFold(k, key) {
				return room, true
			}
		}
	}
	return "", false
}

func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}
