package supervisor

import (
	"path/filepath"

	"github.com/signalsfoundry/scene-supervisor/internal/logging"
	"github.com/signalsfoundry/scene-supervisor/scene"
)

// FieldInsertMFBool inserts a boolean into a multi-valued field at index.
// Negative indexes address from the end; index -1 appends.
func (s *Supervisor) FieldInsertMFBool(f *scene.Field, index int, value bool) {
	if !s.checkField(f, "FieldInsertMFBool", scene.MFBool, true, &index, true, true) {
		return
	}
	s.fieldOperation(f, requestImport, index, scene.Value{Bool: value})
	f.Count++
}

// FieldInsertMFInt32 inserts an integer into a multi-valued field.
func (s *Supervisor) FieldInsertMFInt32(f *scene.Field, index int, value int32) {
	if !s.checkField(f, "FieldInsertMFInt32", scene.MFInt32, true, &index, true, true) {
		return
	}
	s.fieldOperation(f, requestImport, index, scene.Value{Int32: value})
	f.Count++
}

// FieldInsertMFFloat inserts a float into a multi-valued field.
func (s *Supervisor) FieldInsertMFFloat(f *scene.Field, index int, value float64) {
	if !s.checkField(f, "FieldInsertMFFloat", scene.MFFloat, true, &index, true, true) {
		return
	}
	if !scene.ValidFloat(value) {
		s.diag("FieldInsertMFFloat", "value must be finite")
		return
	}
	s.fieldOperation(f, requestImport, index, scene.Value{Float: value})
	f.Count++
}

// FieldInsertMFVec2f inserts a 2D vector into a multi-valued field.
func (s *Supervisor) FieldInsertMFVec2f(f *scene.Field, index int, values [2]float64) {
	if !s.checkField(f, "FieldInsertMFVec2f", scene.MFVec2f, true, &index, true, true) {
		return
	}
	if !scene.ValidVector(values[:]) {
		s.diag("FieldInsertMFVec2f", "vector components must be finite")
		return
	}
	s.fieldOperation(f, requestImport, index, scene.Value{Vec: [4]float64{values[0], values[1]}})
	f.Count++
}

// FieldInsertMFVec3f inserts a 3D vector into a multi-valued field.
func (s *Supervisor) FieldInsertMFVec3f(f *scene.Field, index int, values [3]float64) {
	if !s.checkField(f, "FieldInsertMFVec3f", scene.MFVec3f, true, &index, true, true) {
		return
	}
	if !scene.ValidVector(values[:]) {
		s.diag("FieldInsertMFVec3f", "vector components must be finite")
		return
	}
	s.fieldOperation(f, requestImport, index, scene.Value{Vec: [4]float64{values[0], values[1], values[2]}})
	f.Count++
}

// FieldInsertMFRotation inserts a rotation into a multi-valued field.
func (s *Supervisor) FieldInsertMFRotation(f *scene.Field, index int, values [4]float64) {
	if !s.checkField(f, "FieldInsertMFRotation", scene.MFRotation, true, &index, true, true) {
		return
	}
	if !scene.ValidVector(values[:]) {
		s.diag("FieldInsertMFRotation", "rotation components must be finite")
		return
	}
	if !scene.ValidRotation(values) {
		s.diag("FieldInsertMFRotation", "rotation axis must not be all-zero")
		return
	}
	s.fieldOperation(f, requestImport, index, scene.Value{Vec: values})
	f.Count++
}

// FieldInsertMFColor inserts a color into a multi-valued field.
func (s *Supervisor) FieldInsertMFColor(f *scene.Field, index int, values [3]float64) {
	if !s.checkField(f, "FieldInsertMFColor", scene.MFColor, true, &index, true, true) {
		return
	}
	if !scene.ValidColor(values) {
		s.diag("FieldInsertMFColor", "RGB components must lie in [0,1]")
		return
	}
	s.fieldOperation(f, requestImport, index, scene.Value{Vec: [4]float64{values[0], values[1], values[2]}})
	f.Count++
}

// FieldInsertMFString inserts a string into a multi-valued field.
func (s *Supervisor) FieldInsertMFString(f *scene.Field, index int, value string) {
	if !s.checkField(f, "FieldInsertMFString", scene.MFString, true, &index, true, true) {
		return
	}
	s.fieldOperation(f, requestImport, index, scene.Value{String: value})
	f.Count++
}

// FieldRemoveMF deletes one element of a multi-valued field. For MF node
// fields the element count is reconciled from the simulator's answer,
// since removing a node can cascade.
func (s *Supervisor) FieldRemoveMF(f *scene.Field, index int) {
	if !s.checkField(f, "FieldRemoveMF", scene.MF, false, &index, false, true) {
		return
	}
	if f.Count == 0 {
		s.diag("FieldRemoveMF", "called for an empty field")
		return
	}
	s.fieldOperation(f, requestRemove, index, scene.Value{})
	if f.Type != scene.MFNode {
		f.Count--
	}
}

// FieldRemoveSF empties a single-valued node field.
func (s *Supervisor) FieldRemoveSF(f *scene.Field) {
	if !s.checkField(f, "FieldRemoveSF", scene.SFNode, true, nil, false, true) {
		return
	}
	if f.Data.NodeID == 0 {
		s.diag("FieldRemoveSF", "called for an empty field")
		return
	}
	s.fieldOperation(f, requestRemove, -1, scene.Value{})
	f.Data.NodeID = 0
}

// FieldImportMFNode reads a node description from a .wbo file and inserts
// it into a multi-valued node field at position. A .wrl file is accepted
// only for the root node's children field, and only at the tail position.
// Negative positions address from the end; -1 appends.
func (s *Supervisor) FieldImportMFNode(f *scene.Field, position int, filename string) {
	if !s.checkField(f, "FieldImportMFNode", scene.NoField, false, nil, false, true) {
		return
	}
	if filename == "" {
		s.diag("FieldImportMFNode", "called with an empty filename")
		return
	}

	ext := filepath.Ext(filename)
	if ext == "" || ext == filename {
		s.diag("FieldImportMFNode", "filename has no extension")
		return
	}
	isWbo := ext == ".wbo"
	isWrl := ext == ".wrl"
	if !isWbo && !isWrl {
		s.diag("FieldImportMFNode", "only .wbo and .wrl files are supported")
		return
	}
	if isWrl && f != s.NodeField(s.root, "children") {
		s.diag("FieldImportMFNode", ".wrl import is supported only on the root children field")
		return
	}
	if f.Type != scene.MFNode {
		s.diag("FieldImportMFNode", "called with the wrong field type",
			logging.String("type", f.Type.String()))
		return
	}

	count := f.Count
	if position < -(count+1) || position > count {
		s.diag("FieldImportMFNode", "called with an out-of-bound position",
			logging.Int("position", position),
			logging.Int("min", -(count+1)),
			logging.Int("max", count))
		return
	}
	if position < 0 {
		position += count + 1
	}
	if isWrl && position != f.Count {
		s.diag("FieldImportMFNode", ".wrl import is supported only at the end of the root children field")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendFieldRequest(f, requestImport, position, scene.Value{String: filename}, false)
	s.session.importedNodes = -1
	s.flushUnlocked()
	if s.session.importedNodes > 0 {
		f.Count += s.session.importedNodes
	}
}

// FieldImportMFNodeFromString parses a textual node description and
// inserts it into a multi-valued node field at position.
func (s *Supervisor) FieldImportMFNodeFromString(f *scene.Field, position int, nodeString string) {
	if !s.checkField(f, "FieldImportMFNodeFromString", scene.NoField, false, nil, false, true) {
		return
	}
	if f.Type != scene.MFNode {
		s.diag("FieldImportMFNodeFromString", "called with the wrong field type",
			logging.String("type", f.Type.String()))
		return
	}
	if nodeString == "" {
		s.diag("FieldImportMFNodeFromString", "called with an empty node string")
		return
	}

	count := f.Count
	if position < -(count+1) || position > count {
		s.diag("FieldImportMFNodeFromString", "called with an out-of-bound position",
			logging.Int("position", position),
			logging.Int("min", -(count+1)),
			logging.Int("max", count))
		return
	}
	if position < 0 {
		position += count + 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendFieldRequest(f, requestImportFromString, position, scene.Value{String: nodeString}, false)
	s.session.importedNodes = -1
	s.flushUnlocked()
	if s.session.importedNodes > 0 {
		f.Count += s.session.importedNodes
	}
}

// FieldImportSFNode reads a node description from a .wbo file into an
// empty single-valued node field. The answer carries the new node's uid.
func (s *Supervisor) FieldImportSFNode(f *scene.Field, filename string) {
	if !s.checkField(f, "FieldImportSFNode", scene.NoField, false, nil, false, true) {
		return
	}
	if filename == "" {
		s.diag("FieldImportSFNode", "called with an empty filename")
		return
	}
	ext := filepath.Ext(filename)
	if ext == "" || ext == filename {
		s.diag("FieldImportSFNode", "filename has no extension")
		return
	}
	if ext != ".wbo" {
		s.diag("FieldImportSFNode", "only .wbo files are supported")
		return
	}
	if f.Type != scene.SFNode {
		s.diag("FieldImportSFNode", "called with the wrong field type",
			logging.String("type", f.Type.String()))
		return
	}
	if f.Data.NodeID != 0 {
		s.diag("FieldImportSFNode", "called with a non-empty field")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendFieldRequest(f, requestImport, -1, scene.Value{String: filename}, false)
	s.session.importedNodes = -1
	s.flushUnlocked()
	if s.session.importedNodes >= 0 {
		f.Data.NodeID = int32(s.session.importedNodes)
	}
}

// FieldImportSFNodeFromString parses a textual node description into an
// empty single-valued node field.
func (s *Supervisor) FieldImportSFNodeFromString(f *scene.Field, nodeString string) {
	if !s.checkField(f, "FieldImportSFNodeFromString", scene.NoField, false, nil, false, true) {
		return
	}
	if f.Type != scene.SFNode {
		s.diag("FieldImportSFNodeFromString", "called with the wrong field type",
			logging.String("type", f.Type.String()))
		return
	}
	if nodeString == "" {
		s.diag("FieldImportSFNodeFromString", "called with an empty node string")
		return
	}
	if f.Data.NodeID != 0 {
		s.diag("FieldImportSFNodeFromString", "called with a non-empty field")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendFieldRequest(f, requestImportFromString, -1, scene.Value{String: nodeString}, false)
	s.session.importedNodes = -1
	s.flushUnlocked()
	if s.session.importedNodes >= 0 {
		f.Data.NodeID = int32(s.session.importedNodes)
	}
}
