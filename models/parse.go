package models

import (
	"bufio"
	"strings"
)

// LookupField returns the first value of key inside the first [section] of a
// wg-quick style conf. Section and key names are matched case-insensitively.
func LookupField(conf, section, key string) (string, bool) {
	current := ""
	sc := bufio.NewScanner(strings.NewReader(conf))
	for sc.Scan() {
		ln := strings.TrimSpace(sc.Text())
		if ln == "" || strings.HasPrefix(ln, "#") || strings.HasPrefix(ln, ";") {
			continue
		}
		if strings.HasPrefix(ln, "[") && strings.HasSuffix(ln, "]") {
			if strings.EqualFold(current, section) {
				// only the first matching section counts
				return "", false
			}
			current = strings.TrimSpace(ln[1 : len(ln)-1])
			continue
		}
		if !strings.EqualFold(current, section) {
			continue
		}
		k, v, ok := strings.Cut(ln, "=")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(k), key) {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}
