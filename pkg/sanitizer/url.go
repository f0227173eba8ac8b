package sanitizer

import (
	"net/url"
	"strings"
)

func NormalizeURL(input string) string {
	s := strings.TrimSpace(strings.ToLower(input))
	if s == "" {
		return ""
	}

	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}
	u.Scheme = "https"

	if after, ok := strings.CutPrefix(u.Host, "www."); ok {
		u.Host = after
	}

	u.Host = strings.TrimSuffix(u.Host, "/")
	u.Path = strings.TrimSuffix(strings.TrimSpace(u.Path), "/")

	q := u.Query()
	qClean := url.Values{}
	for k, v := range q {
		key := strings.TrimSpace(strings.ToLower(k))
		if strings.HasPrefix(key, "utm_") {
			continue
		}
		for _, val := range v {
			value := strings.TrimSpace(strings.ToLower(val))
			if value != "" {
				qClean.Add(key, value)
			}
		}
	}
	u.RawQuery = qClean.Encode()

	return u.String()
}
