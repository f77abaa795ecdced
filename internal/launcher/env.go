package launcher

import "strings"

// DefaultStripKeys lists the certificate overrides removed from the child
// environment.
func DefaultStripKeys() []string {
	return []string{"SSL_CERT_FILE", "REQUESTS_CA_BUNDLE", "CURL_CA_BUNDLE"}
}

// StripEnv returns a copy of environ without the deny-listed keys, and the
// keys actually removed in deny-list order. environ is not modified.
func StripEnv(environ, deny []string) (env, removed []string) {
	denied := make(map[string]bool, len(deny))
	for _, k := range deny {
		denied[k] = true
	}

	found := make(map[string]bool, len(deny))
	env = make([]string, 0, len(environ))
	for _, kv := range environ {
		key, _, _ := strings.Cut(kv, "=")
		if denied[key] {
			found[key] = true
			continue
		}
		env = append(env, kv)
	}

	for _, k := range deny {
		if found[k] {
			removed = append(removed, k)
			found[k] = false
		}
	}
	return env, removed
}
