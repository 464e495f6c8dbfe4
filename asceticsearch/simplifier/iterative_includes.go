package simplifier

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/sqlparams"
)

var (
	cteHeader     = regexp.MustCompile(`^,?(cte\d+) AS$`)
	existsSource  = regexp.MustCompile(`EXISTS \(SELECT \* FROM (cte\d+) WHERE ([^()]*)\)`)
	placeholder   = regexp.MustCompile(`@p\d+`)
	topBudget     = regexp.MustCompile(`TOP \([^)]*\)`)
	cteReference  = regexp.MustCompile(`\bcte\d+\b`)
	unionMember   = regexp.MustCompile(`^\s*SELECT .* FROM (cte\d+)$`)
	includeMarker = "0 AS IsMatch"
)

type cteBlock struct {
	name   string
	header int // index of the "cteN AS" line
	end    int // index of the closing ")" line
	body   []string
}

func parseCtes(lines []string) []cteBlock {
	var blocks []cteBlock
	for i := 0; i < len(lines); i++ {
		m := cteHeader.FindStringSubmatch(lines[i])
		if m == nil || i+1 >= len(lines) || lines[i+1] != "(" {
			continue
		}
		depth := 0
		for j := i + 1; j < len(lines); j++ {
			switch lines[j] {
			case "(":
				depth++
			case ")":
				depth--
			}
			if depth == 0 {
				blocks = append(blocks, cteBlock{name: m[1], header: i, end: j, body: lines[i+2 : j]})
				i = j
				break
			}
		}
	}
	return blocks
}

type include struct {
	block     cteBlock
	source    string
	condition string
	key       string
}

func parseInclude(block cteBlock, params *sqlparams.Manager) (include, bool) {
	body := strings.Join(block.body, "\n")
	if !strings.Contains(body, includeMarker) {
		return include{}, false
	}
	matches := existsSource.FindAllStringSubmatch(body, -1)
	if len(matches) != 1 {
		return include{}, false
	}
	key := existsSource.ReplaceAllString(body, "EXISTS (?)")
	key = topBudget.ReplaceAllString(key, "TOP (?)")
	key = placeholder.ReplaceAllStringFunc(key, func(p string) string {
		if params == nil {
			return p
		}
		value, ok := params.Value(p)
		if !ok {
			return p
		}
		return fmt.Sprintf("%T(%v)", value, value)
	})
	return include{block: block, source: matches[0][1], condition: matches[0][2], key: key}, true
}

// CombineIterativeIncludes merges include CTEs that differ only in the CTE
// they read from. The last one of a group reads the union of all sources;
// the others are removed and references to them redirected.
func CombineIterativeIncludes(text string, params *sqlparams.Manager) string {
	lines := strings.Split(text, "\n")
	blocks := parseCtes(lines)

	var order []string
	groups := map[string][]include{}
	for _, block := range blocks {
		inc, ok := parseInclude(block, params)
		if !ok {
			continue
		}
		if _, seen := groups[inc.key]; !seen {
			order = append(order, inc.key)
		}
		groups[inc.key] = append(groups[inc.key], inc)
	}

	renames := map[string]string{}
	removed := map[int]bool{}
	replaced := map[int]string{}
	for _, key := range order {
		group := groups[key]
		if len(group) < 2 || !mergeable(group, blocks) {
			continue
		}
		last := group[len(group)-1]
		parts := make([]string, 0, len(group))
		for _, inc := range group {
			parts = append(parts, fmt.Sprintf("SELECT 1 FROM %s WHERE %s", inc.source, inc.condition))
		}
		exists := "EXISTS (" + strings.Join(parts, " UNION ALL ") + ")"
		for i := last.block.header + 2; i < last.block.end; i++ {
			if existsSource.MatchString(lines[i]) {
				replaced[i] = existsSource.ReplaceAllLiteralString(lines[i], exists)
			}
		}
		for _, inc := range group[:len(group)-1] {
			renames[inc.block.name] = last.block.name
			for i := inc.block.header; i <= inc.block.end; i++ {
				removed[i] = true
			}
		}
	}
	if len(renames) == 0 {
		return text
	}

	out := make([]string, 0, len(lines))
	for i, line := range lines {
		if removed[i] {
			continue
		}
		if r, ok := replaced[i]; ok {
			line = r
		}
		out = append(out, cteReference.ReplaceAllStringFunc(line, func(name string) string {
			if target, ok := renames[name]; ok {
				return target
			}
			return name
		}))
	}
	return strings.Join(dedupeUnionMembers(out), "\n")
}

// mergeable rejects groups whose members feed each other, and groups with a
// removed member read by a CTE defined before the surviving one.
func mergeable(group []include, blocks []cteBlock) bool {
	names := map[string]bool{}
	for _, inc := range group {
		names[inc.block.name] = true
	}
	for _, inc := range group {
		if names[inc.source] {
			return false
		}
	}
	last := group[len(group)-1].block
	for _, block := range blocks {
		if names[block.name] || block.header >= last.header {
			continue
		}
		for _, ref := range cteReference.FindAllString(strings.Join(block.body, "\n"), -1) {
			if names[ref] {
				return false
			}
		}
	}
	return true
}

// dedupeUnionMembers drops a repeated "SELECT ... FROM cteN" union member
// together with the UNION ALL joining it.
func dedupeUnionMembers(lines []string) []string {
	out := make([]string, 0, len(lines))
	seen := map[string]bool{}
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "(" || trimmed == ")" {
			seen = map[string]bool{}
		}
		if unionMember.MatchString(line) {
			if seen[trimmed] {
				if n := len(out); n > 0 && strings.TrimSpace(out[n-1]) == "UNION ALL" {
					out = out[:n-1]
				}
				continue
			}
			seen[trimmed] = true
		}
		out = append(out, line)
	}
	return out
}
