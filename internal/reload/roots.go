package reload

import (
	"os"
	"sort"
	"strings"
)

const sep = string(os.PathSeparator)

// rootTrie is a transient prefix tree over path components, built and
// discarded inside one CommonRoots call.
type rootTrie map[string]rootTrie

// CommonRoots reduces a set of absolute directories to the minimal set of
// roots whose recursive watches cover every input. Paths are inserted
// deepest first; when a shallower path terminates at a node, the deeper
// branches below it are cleared, so an ancestor subsumes descendants. The
// leaves of the finished trie are the roots.
func CommonRoots(paths map[string]struct{}) map[string]struct{} {
	rv := make(map[string]struct{}, len(paths))
	if len(paths) == 0 {
		return rv
	}

	split := make([][]string, 0, len(paths))
	for p := range paths {
		split = append(split, strings.Split(p, sep))
	}
	sort.Slice(split, func(i, j int) bool {
		return len(split[i]) > len(split[j])
	})

	trie := rootTrie{}
	for _, chunks := range split {
		node := trie
		for _, chunk := range chunks {
			child, ok := node[chunk]
			if !ok {
				child = rootTrie{}
				node[chunk] = child
			}
			node = child
		}
		for k := range node {
			delete(node, k)
		}
	}

	var walk func(node rootTrie, prefix []string)
	walk = func(node rootTrie, prefix []string) {
		if len(node) == 0 {
			rv[strings.Join(prefix, sep)] = struct{}{}
			return
		}
		for chunk, child := range node {
			next := make([]string, len(prefix)+1)
			copy(next, prefix)
			next[len(prefix)] = chunk
			walk(child, next)
		}
	}
	walk(trie, nil)
	return rv
}
