// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package util

import (
	"strings"
	"unicode/utf8"
)

var uriSchemes = []string{"mongodb://", "mongodb+srv://"}

// SanitizeURI redacts the credentials of a connection string, if any.
func SanitizeURI(uri string) string {
	scheme := ""
	for _, s := range uriSchemes {
		if strings.HasPrefix(uri, s) {
			scheme = s
			break
		}
	}
	if scheme == "" {
		return uri
	}

	rest := uri[len(scheme):]
	hosts := rest
	if end := strings.IndexAny(rest, "/?"); end >= 0 {
		hosts = rest[:end]
	}
	at := strings.LastIndex(hosts, "@")
	if at < 0 {
		return uri
	}
	return scheme + "[**REDACTED**]" + rest[at:]
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	if n < 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
