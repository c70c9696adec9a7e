package http

import xutil "MacroPull/pkg/util"

// ParseList splits a comma-separated query value.
func ParseList(s string) []string { return xutil.SplitList(s) }
