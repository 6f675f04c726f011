package build

import (
	"sort"
	"time"

	"github.com/densky-dev/densky/pkg/router"
)

// Manifest describes one build for the runtime that loads it.
type Manifest struct {
	BuildID     string    `json:"buildId"`
	CacheHash   string    `json:"cacheHash"`
	GeneratedAt time.Time `json:"generatedAt"`

	// Entry is the key of the root dispatcher.
	Entry string `json:"entry"`

	Nodes []ManifestNode `json:"nodes"`
}

// ManifestNode is one generated dispatcher.
type ManifestNode struct {
	Path    string   `json:"path"`
	Kind    string   `json:"kind"`
	Key     string   `json:"key"`
	Source  string   `json:"source,omitempty"`
	Methods []string `json:"methods,omitempty"`
	SHA256  string   `json:"sha256"`
}

func newManifest(result *Result, root string) *Manifest {
	m := &Manifest{
		BuildID:     result.BuildID,
		CacheHash:   result.CacheHash,
		GeneratedAt: time.Now().UTC(),
		Nodes:       make([]ManifestNode, 0, len(result.Artifacts)),
	}

	for _, a := range result.Artifacts {
		key, err := artifactKey(root, a.OutputPath)
		if err != nil {
			continue
		}
		node := ManifestNode{
			Path:   a.Path,
			Kind:   a.Kind.String(),
			Key:    key,
			SHA256: hashContent(a.Content),
		}
		if n := result.Tree.Node(a.Node); n.HasLeaf() {
			node.Source = result.Tree.Leaf(n.Leaf).FilePath
		}
		for _, method := range a.Methods {
			node.Methods = append(node.Methods, string(method))
		}
		if a.Kind == router.KindRoot {
			m.Entry = key
		}
		m.Nodes = append(m.Nodes, node)
	}

	sort.Slice(m.Nodes, func(i, j int) bool {
		return m.Nodes[i].Key < m.Nodes[j].Key
	})
	return m
}
