package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNodeIsIdempotentOnID(t *testing.T) {
	g := NewRegistry()
	first := g.AddNode(4, NodeSolid, "Crate", "BOX", 0, 1, false)
	again := g.AddNode(4, NodeSolid, "Crate", "CRATE.BOX2", 0, 1, false)

	require.Same(t, first, again)
	assert.Equal(t, 1, g.NodeCount())
	// Only the DEF name is refreshed, using the last dotted segment.
	assert.Equal(t, "BOX2", again.DEFName)
}

func TestAddNodeDropsModelNameEqualToBaseType(t *testing.T) {
	g := NewRegistry()
	n := g.AddNode(2, NodeSolid, "Solid", "", 0, 0, false)
	assert.Equal(t, "", n.ModelName)

	m := g.AddNode(3, NodeSolid, "Crate", "", 0, 0, false)
	assert.Equal(t, "Crate", m.ModelName)
}

func TestFindNodeByDEFScoping(t *testing.T) {
	g := NewRegistry()
	proto := g.AddNode(10, NodeRobot, "", "ARM", 0, 0, true)
	inner := g.AddNode(11, NodeSolid, "", "WRIST", 0, 10, false)
	inner.ProtoInternal = true
	inner.ParentProto = proto
	outer := g.AddNode(12, NodeSolid, "", "WRIST", 0, 0, false)

	// Unscoped lookup must not see the PROTO-internal handle.
	assert.Same(t, outer, g.FindNodeByDEF("WRIST", nil))
	// Scoped lookup sees only handles owned by that PROTO.
	assert.Same(t, inner, g.FindNodeByDEF("WRIST", proto))
	assert.Nil(t, g.FindNodeByDEF("ELBOW", proto))
}

func TestRemoveNodeResetsDependentParents(t *testing.T) {
	g := NewRegistry()
	g.AddNode(1, NodeGroup, "", "", 0, 0, false)
	child := g.AddNode(2, NodeSolid, "", "", 0, 1, false)
	grandchild := g.AddNode(3, NodeSolid, "", "", 0, 2, false)

	g.RemoveNode(2)

	assert.Nil(t, g.FindNodeByID(2))
	assert.False(t, g.ValidNode(child))
	assert.Equal(t, -1, grandchild.ParentID)
}

func TestPurgeProtoInternal(t *testing.T) {
	g := NewRegistry()
	keep := g.AddNode(1, NodeSolid, "", "A", 0, 0, false)
	gone := g.AddNode(2, NodeSolid, "", "B", 0, 0, false)
	gone.ProtoInternal = true

	g.AddField(&Field{Name: "translation", NodeID: 1, Type: SFVec3f, Count: -1})
	internalField := &Field{Name: "size", NodeID: 2, Type: SFVec3f, Count: -1, ProtoInternal: true}
	g.AddField(internalField)

	g.PurgeProtoInternal()

	assert.True(t, g.ValidNode(keep))
	assert.False(t, g.ValidNode(gone))
	assert.NotNil(t, g.FindField("translation", 1))
	assert.False(t, g.ValidField(internalField))
}

func TestValidNodeByPointerIdentity(t *testing.T) {
	g := NewRegistry()
	n := g.AddNode(5, NodeSolid, "", "", 0, 0, false)
	impostor := &Node{ID: 5}

	assert.True(t, g.ValidNode(n))
	assert.False(t, g.ValidNode(impostor))
	assert.False(t, g.ValidNode(nil))
}

func TestFindNodeByTag(t *testing.T) {
	g := NewRegistry()
	cam := g.AddNode(7, NodeCamera, "", "", 3, 0, false)
	assert.Same(t, cam, g.FindNodeByTag(3))
	assert.Nil(t, g.FindNodeByTag(9))
}

func TestExtractDEF(t *testing.T) {
	cases := []struct {
		expr, want string
	}{
		{"", ""},
		{"BODY", "BODY"},
		{"ROBOT.BODY", "BODY"},
		{"A.B.C", "C"},
		{"TRAILING.", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ExtractDEF(c.expr), "expr %q", c.expr)
	}
}
