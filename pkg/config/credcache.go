package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Credentials are the secrets for the two services. Empty fields mean
// "not known yet".
type Credentials struct {
	TogglKey         string `json:"toggl_key,omitempty"`
	HarvestAccountID string `json:"harvest_account_id,omitempty"`
	HarvestKey       string `json:"harvest_key,omitempty"`
}

// Complete reports whether every credential is present.
func (c Credentials) Complete() bool {
	return c.TogglKey != "" && c.HarvestAccountID != "" && c.HarvestKey != ""
}

// CredCache is the JSON-backed credential store. Save is a no-op until
// something actually changed.
type CredCache struct {
	Path  string
	Creds Credentials
	dirty bool
}

// OpenCredCache loads the cache at path. With read false the file is left
// untouched and the cache starts empty (the --no-cache flow). A missing
// file is not an error.
func OpenCredCache(path string, read bool) (*CredCache, error) {
	c := &CredCache{Path: path}
	if !read {
		return c, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&c.Creds); err != nil {
		return nil, err
	}
	return c, nil
}

// Merge fills in any credentials present in creds, marking the cache dirty
// on change. Empty fields in creds never erase cached values.
func (c *CredCache) Merge(creds Credentials) {
	if creds.TogglKey != "" && creds.TogglKey != c.Creds.TogglKey {
		c.Creds.TogglKey = creds.TogglKey
		c.dirty = true
	}
	if creds.HarvestAccountID != "" && creds.HarvestAccountID != c.Creds.HarvestAccountID {
		c.Creds.HarvestAccountID = creds.HarvestAccountID
		c.dirty = true
	}
	if creds.HarvestKey != "" && creds.HarvestKey != c.Creds.HarvestKey {
		c.Creds.HarvestKey = creds.HarvestKey
		c.dirty = true
	}
}

// Save writes the cache back to disk if anything changed.
func (c *CredCache) Save() error {
	if !c.dirty {
		return nil
	}

	dir := filepath.Dir(c.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(c.Path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(c.Creds); err != nil {
		return err
	}
	c.dirty = false
	return nil
}
