package postgres

import (
	"net/url"
	"strings"
)

const (
	preparedBinaryParam = "disable_prepared_binary_result"
	maxTracedQueryLen   = 512
)

// DisablePreparedBinaryResult sets disable_prepared_binary_result=yes on a URL-style DSN unless the
// caller already chose a value. Key/value DSNs and unparsable input are returned unchanged.
func DisablePreparedBinaryResult(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return dsn
	}
	q := u.Query()
	if q.Get(preparedBinaryParam) != "" {
		return dsn
	}
	q.Set(preparedBinaryParam, "yes")
	u.RawQuery = q.Encode()
	return u.String()
}

// DatabaseName extracts the database from either a postgres:// URL or a key/value DSN.
func DatabaseName(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" {
		if name := strings.Trim(u.Path, "/ "); name != "" {
			return name
		}
	}
	for _, token := range strings.Fields(dsn) {
		if name, ok := strings.CutPrefix(token, "dbname="); ok {
			if name = strings.Trim(name, `"'`); name != "" {
				return name
			}
		}
	}
	return ""
}

// TraceQuery collapses whitespace and caps the statement recorded on db spans.
func TraceQuery(query string) string {
	query = strings.Join(strings.Fields(query), " ")
	if len(query) > maxTracedQueryLen {
		return query[:maxTracedQueryLen] + "..."
	}
	return query
}
