// Package dedup decides when two differently-sourced store records denote
// the same physical business and folds them into one canonical record.
package dedup

import (
	"strings"

	"github.com/lucasmnd/storemap/internal/domain"
	"github.com/lucasmnd/storemap/internal/geo"
)

// Key derives the primary dedup key for a record. Precedence is fixed: an
// external place id always wins, then the rounded-coordinate bucket, then
// the normalized name|address|city triple.
func Key(r domain.StoreRecord) string {
	return candidateKeys(r)[0]
}

// candidateKeys lists every key a record may match under, primary first.
// A record carrying a place id is keyed by it exclusively: it is never
// matched through its coordinates or name, even when those collide with
// another record. A coordinate record additionally answers to its name
// triple, so the same shop recorded a metre apart by two sources still
// resolves to one business. Sources disagree on whether an address is
// known, so a record that carries one also answers to the address-less
// spelling.
func candidateKeys(r domain.StoreRecord) []string {
	if id := strings.TrimSpace(r.ExternalPlaceID); id != "" {
		return []string{"place:" + id}
	}
	var keys []string
	if r.Latitude != 0 && r.Longitude != 0 {
		keys = append(keys, geo.BucketKey(r.Latitude, r.Longitude))
	}
	name, addr, city := normalize(r.Name), normalize(r.Address), normalize(r.City)
	keys = append(keys, "name:"+name+"|"+addr+"|"+city)
	if addr != "" {
		keys = append(keys, "name:"+name+"||"+city)
	}
	return keys
}

// normalize lowercases and strips all whitespace, so "CBD Paris Marais " and
// "cbd paris marais" key identically.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range strings.ToLower(s) {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Merge folds the three source lists into canonical records. Admission order
// is backend, then seed, then live: the first record to claim a key wins the
// identity, and later records matching any of its keys only back-fill fields
// the winner left empty. Output preserves admission order. The pass is pure,
// so repeating it over the same inputs yields an identical result.
func Merge(backend, seed, live []domain.StoreRecord) []domain.CanonicalStore {
	var out []domain.CanonicalStore
	index := make(map[string]int)

	admit := func(records []domain.StoreRecord) {
		for _, r := range records {
			keys := candidateKeys(r)

			matched := -1
			for _, k := range keys {
				if i, seen := index[k]; seen {
					matched = i
					break
				}
			}
			if matched >= 0 {
				backfill(&out[matched], r)
				// Register the loser's remaining keys too, so a third
				// source matching either spelling still folds in.
				for _, k := range keys {
					if _, seen := index[k]; !seen {
						index[k] = matched
					}
				}
				continue
			}

			pos := len(out)
			out = append(out, domain.CanonicalStore{
				StoreRecord: r,
				DedupKey:    keys[0],
				Sources:     []domain.Source{r.Source},
			})
			for _, k := range keys {
				index[k] = pos
			}
		}
	}

	admit(backend)
	admit(seed)
	admit(live)
	return out
}

// backfill copies fields from the losing record into fields the canonical
// winner left empty. Identity fields already set are never overwritten.
func backfill(c *domain.CanonicalStore, r domain.StoreRecord) {
	if c.Address == "" {
		c.Address = r.Address
	}
	if c.City == "" {
		c.City = r.City
	}
	if c.PostalCode == "" {
		c.PostalCode = r.PostalCode
	}
	if c.Latitude == 0 && c.Longitude == 0 {
		c.Latitude = r.Latitude
		c.Longitude = r.Longitude
	}
	if c.ExternalPlaceID == "" {
		c.ExternalPlaceID = r.ExternalPlaceID
	}
	if c.OwnerUserID == "" {
		c.OwnerUserID = r.OwnerUserID
	}
	if c.Phone == "" {
		c.Phone = r.Phone
	}
	if c.Website == "" {
		c.Website = r.Website
	}
	if c.Description == "" {
		c.Description = r.Description
	}
	c.Sources = append(c.Sources, r.Source)
}
