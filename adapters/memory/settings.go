package memory

import (
	"sort"
	"time"

	"github.com/artpar/cmscore/domain/settings"
	"github.com/artpar/cmscore/ports"
)

// settingsTable holds override rows keyed by owner, then key.
type settingsTable map[string]map[string]settings.Setting

// list returns an owner's rows sorted by key.
func (t settingsTable) list(ownerID string) []settings.Setting {
	var result []settings.Setting
	for _, st := range t[ownerID] {
		result = append(result, st)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}

// upsert validates the whole batch before applying any row. Values are
// normalized through the same JSON encoding the SQLite store uses.
func (t settingsTable) upsert(batch []settings.Setting, ownerExists func(string) bool) error {
	prepared := make([]settings.Setting, 0, len(batch))
	now := time.Now().UTC()
	for _, st := range batch {
		if !ownerExists(st.OwnerID) {
			return ports.ErrNotFound
		}
		raw, err := settings.EncodeValue(st.Value)
		if err != nil {
			return err
		}
		if st.Value, err = settings.DecodeValue(raw); err != nil {
			return err
		}
		if st.UpdatedAt.IsZero() {
			st.UpdatedAt = now
		}
		prepared = append(prepared, st)
	}

	for _, st := range prepared {
		if t[st.OwnerID] == nil {
			t[st.OwnerID] = make(map[string]settings.Setting)
		}
		t[st.OwnerID][st.Key] = st
	}
	return nil
}

func normalized(v settings.Values) settings.Values {
	out, err := settings.Normalize(v)
	if err != nil {
		return v.Clone()
	}
	return out
}

func cloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
