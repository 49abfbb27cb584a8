package vocab

import (
	"net/url"
	"strings"
)

// Resolve resolves ref against base. Absolute references are returned
// unchanged and a trailing empty fragment survives resolution, so
// namespace IRIs such as "ns#" keep their '#'.
func Resolve(base *url.URL, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if u.IsAbs() || base == nil {
		return ref, nil
	}
	resolved := base.ResolveReference(u).String()
	if strings.HasSuffix(ref, "#") && !strings.HasSuffix(resolved, "#") {
		resolved += "#"
	}
	return resolved, nil
}
