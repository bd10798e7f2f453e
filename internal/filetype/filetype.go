// Package filetype parses Qt-style file-type descriptors such as
// "CSV (*.csv);;Matlab-Workspace (*.mat)" into canonical extensions and maps a
// chosen filter text back to the extension it selects.
package filetype

import (
	"regexp"
	"strings"
)

// groupPattern matches one parenthesized wildcard group, e.g. "(*.txt)".
var groupPattern = regexp.MustCompile(`\([^)]+\)`)

// groupCutset is stripped from both ends of a matched group. The "*" is
// optional in descriptors, so "(.xls)" and "(*.xls)" both yield ".xls".
const groupCutset = "(*)"

// Parse extracts every extension of descriptor in left-to-right order,
// including the leading dot. A group listing several patterns, like
// "(*.h5 *.hdf5)", contributes each of them.
//
// An unbalanced descriptor yields an empty list.
func Parse(descriptor string) []string {
	if !balanced(descriptor) {
		return []string{}
	}

	groups := groupPattern.FindAllString(descriptor, -1)
	exts := make([]string, 0, len(groups))
	for _, g := range groups {
		for _, field := range strings.Fields(strings.Trim(g, groupCutset)) {
			ext := strings.TrimLeft(field, "*")
			if ext != "" {
				exts = append(exts, ext)
			}
		}
	}
	return exts
}

// Resolve returns the extension of descriptor that chosen selects.
//
// The list is scanned in order and the last extension contained in chosen
// wins: ".xls" is a substring of "Excel 2007 Worksheet (.xlsx)", and the later
// ".xlsx" entry must take precedence. ok is false when chosen is empty or no
// extension matches.
func Resolve(descriptor, chosen string) (ext string, ok bool) {
	if chosen == "" {
		return "", false
	}
	for _, e := range Parse(descriptor) {
		if strings.Contains(chosen, e) {
			ext, ok = e, true
		}
	}
	return ext, ok
}

// Prune removes the parenthesized groups from a descriptor, leaving the
// human-readable labels.
func Prune(descriptor string) string {
	return groupPattern.ReplaceAllString(descriptor, "")
}

// Join builds a descriptor from label/pattern pairs using the ";;" separator
// understood by Qt file dialogs.
func Join(entries ...string) string {
	return strings.Join(entries, Separator)
}

// Separator delimits alternatives in a descriptor.
const Separator = ";;"

// ReplaceExt swaps the extension of path for ext. Paths without an extension
// simply get ext appended.
func ReplaceExt(path, ext string) string {
	start := strings.LastIndexAny(path, `/\`) + 1
	name := path[start:]
	// Leading dots belong to the name: ".hidden" has no extension.
	lead := len(name) - len(strings.TrimLeft(name, "."))
	if dot := strings.LastIndexByte(name, '.'); dot >= lead {
		return path[:start+dot] + ext
	}
	return path + ext
}

func balanced(s string) bool {
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
