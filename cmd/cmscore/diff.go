package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/artpar/cmscore/domain/settings"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// renderSettings prints one "key = json" line per setting in key order.
func renderSettings(values settings.Values) string {
	var b strings.Builder
	for _, k := range values.Keys() {
		v, err := json.Marshal(values[k])
		if err != nil {
			v = []byte(fmt.Sprint(values[k]))
		}
		fmt.Fprintf(&b, "%s = %s\n", k, v)
	}
	return b.String()
}

// settingsDiff returns a line diff of two settings maps and whether they
// differ. Unchanged lines are prefixed with two spaces, removed lines with
// "- " and added lines with "+ ".
func settingsDiff(before, after settings.Values) (string, bool) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(renderSettings(before), renderSettings(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	changed := false
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
			changed = true
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
			changed = true
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix)
			out.WriteString(line)
		}
	}
	return out.String(), changed
}
