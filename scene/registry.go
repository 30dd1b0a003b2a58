// Package scene holds the supervisor's client-side model of the simulator
// scene graph: node and field handles plus the registry that gives them
// stable identity.
package scene

// Registry owns the live node and field handles. It is not internally
// locked: every access happens under the supervisor's step lock, which
// also serialises the frame writer and reader that mutate it.
//
// Handles keep their insertion order; new entries are prepended so the
// most recently resolved handle is found first, and the head is the
// handle just inserted by an in-flight resolution.
type Registry struct {
	nodes  []*Node
	fields []*Field
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// NodeCount returns the number of live node handles.
func (g *Registry) NodeCount() int { return len(g.nodes) }

// FieldCount returns the number of live field handles.
func (g *Registry) FieldCount() int { return len(g.fields) }

// FindNodeByID returns the handle with the given id, or nil.
func (g *Registry) FindNodeByID(id int) *Node {
	for _, n := range g.nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// FindNodeByDEF returns the handle whose DEF name matches inside the given
// PROTO scope. With a nil scope only non-PROTO-internal handles match.
func (g *Registry) FindNodeByDEF(def string, parentProto *Node) *Node {
	for _, n := range g.nodes {
		if n.ParentProto == parentProto && (parentProto != nil || !n.ProtoInternal) &&
			n.DEFName != "" && n.DEFName == def {
			return n
		}
	}
	return nil
}

// FindNodeByTag returns the handle wrapping the device with the given tag.
func (g *Registry) FindNodeByTag(tag int) *Node {
	for _, n := range g.nodes {
		if n.Tag == tag {
			return n
		}
	}
	return nil
}

// FindField returns the field handle for (nodeID, name), or nil.
func (g *Registry) FindField(name string, nodeID int) *Field {
	for _, f := range g.fields {
		if f.NodeID == nodeID && f.Name == name {
			return f
		}
	}
	return nil
}

// ValidNode reports whether the handle is a live member of the registry.
// Identity is by pointer, which guards callers holding stale handles.
func (g *Registry) ValidNode(n *Node) bool {
	if n == nil {
		return false
	}
	for _, m := range g.nodes {
		if m == n {
			return true
		}
	}
	return false
}

// ValidField reports whether the field handle is live.
func (g *Registry) ValidField(f *Field) bool {
	if f == nil {
		return false
	}
	for _, h := range g.fields {
		if h == f {
			return true
		}
	}
	return false
}

// AddNode inserts a handle for the given id, or refreshes the DEF name of
// an existing one. The def argument may be a dotted DEF-path expression;
// only the last segment is stored. The model name is dropped when it
// equals the base type name.
func (g *Registry) AddNode(id int, t NodeType, modelName, def string, tag, parentID int, isProto bool) *Node {
	if n := g.FindNodeByID(id); n != nil {
		if extracted := ExtractDEF(def); def != "" && n.DEFName != extracted {
			n.DEFName = extracted
		}
		return n
	}
	if base := t.String(); base != "" && modelName == base {
		modelName = ""
	}
	n := &Node{
		ID:                id,
		Type:              t,
		ModelName:         modelName,
		DEFName:           ExtractDEF(def),
		ParentID:          parentID,
		Tag:               tag,
		IsProto:           isProto,
		ContactPointsTime: -1.0,
	}
	g.nodes = append([]*Node{n}, g.nodes...)
	return n
}

// AddField prepends a resolved field handle.
func (g *Registry) AddField(f *Field) {
	g.fields = append([]*Field{f}, g.fields...)
}

// HeadField returns the most recently added field handle, or nil.
func (g *Registry) HeadField() *Field {
	if len(g.fields) == 0 {
		return nil
	}
	return g.fields[0]
}

// RemoveNode unlinks the handle with the given id and resets the parent id
// of every dependent handle to -1.
func (g *Registry) RemoveNode(id int) {
	for i, n := range g.nodes {
		if n.ID == id {
			g.nodes = append(g.nodes[:i], g.nodes[i+1:]...)
			break
		}
	}
	for _, n := range g.nodes {
		if n.ParentID == id {
			n.ParentID = -1
		}
	}
}

// PurgeProtoInternal drops every node and field handle flagged as
// PROTO-internal. The simulator requests this when a PROTO is regenerated
// and its internal subtree is rebuilt with fresh ids.
func (g *Registry) PurgeProtoInternal() {
	nodes := g.nodes[:0]
	for _, n := range g.nodes {
		if !n.ProtoInternal {
			nodes = append(nodes, n)
		}
	}
	g.nodes = nodes

	fields := g.fields[:0]
	for _, f := range g.fields {
		if !f.ProtoInternal {
			fields = append(fields, f)
		}
	}
	g.fields = fields
}

// Clear drops every handle. Used at controller shutdown.
func (g *Registry) Clear() {
	g.nodes = nil
	g.fields = nil
}
