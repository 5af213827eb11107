// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

// Package matcher filters benchmark ids by exact match, substring, or
// regular expression, per §4.3.
package matcher

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/onosproject/yab/pkg/benchid"
)

// Matcher filters benchmark ids against a filter string.
type Matcher struct {
	filter string
	regex  *regexp.Regexp
}

// New builds a Matcher from filter. asRegex forces regular-expression
// matching (the --regex flag); otherwise a filter delimited with leading
// and trailing "/" is treated as a regex, and anything else falls back to
// substring matching. This resolves the open policy question in §9:
// substring-by-default, regex only when explicitly requested.
func New(filter string, asRegex bool) (*Matcher, error) {
	if !asRegex {
		if delimited, pattern, ok := delimitedRegex(filter); ok {
			asRegex = true
			filter = pattern
			_ = delimited
		}
	}
	m := &Matcher{filter: filter}
	if asRegex && filter != "" {
		re, err := regexp.Compile(filter)
		if err != nil {
			return nil, errors.Wrapf(err, "compiling filter regex %q", filter)
		}
		m.regex = re
	}
	return m, nil
}

// delimitedRegex recognizes a filter of the form "/pattern/" and returns
// the inner pattern.
func delimitedRegex(filter string) (delimited bool, pattern string, ok bool) {
	if len(filter) >= 2 && strings.HasPrefix(filter, "/") && strings.HasSuffix(filter, "/") {
		return true, filter[1 : len(filter)-1], true
	}
	return false, filter, false
}

// Match reports whether id passes the filter. An empty filter matches
// everything. Otherwise, in order: an exact match of the full id string
// wins first, then (if not a regex matcher) a substring match, then (if a
// regex matcher) a regular-expression match.
func (m *Matcher) Match(id benchid.ID) bool {
	if m.filter == "" {
		return true
	}
	s := id.String()
	if s == m.filter {
		return true
	}
	if m.regex != nil {
		return m.regex.MatchString(s)
	}
	return strings.Contains(s, m.filter)
}

// Filter returns the subset of ids that Match accepts, preserving order.
func (m *Matcher) Filter(ids []benchid.ID) []benchid.ID {
	out := make([]benchid.ID, 0, len(ids))
	for _, id := range ids {
		if m.Match(id) {
			out = append(out, id)
		}
	}
	return out
}
