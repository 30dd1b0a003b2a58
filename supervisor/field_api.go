package supervisor

import (
	"github.com/signalsfoundry/scene-supervisor/internal/logging"
	"github.com/signalsfoundry/scene-supervisor/scene"
)

// NodeField resolves a field of the node by name. The same handle comes
// back on every subsequent call for the same (node, name) pair.
func (s *Supervisor) NodeField(node *scene.Node, name string) *scene.Field {
	if !s.checkRole("NodeField") {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodeFieldLocked(node, name, false, "NodeField")
}

// NodeProtoField resolves a field inside a PROTO instance. The handle is
// read-only: setters reject PROTO-internal fields.
func (s *Supervisor) NodeProtoField(node *scene.Node, name string) *scene.Field {
	if !s.checkRole("NodeProtoField") {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registry.ValidNode(node) && !node.IsProto {
		s.diag("NodeProtoField", "node is not a PROTO node")
		return nil
	}
	return s.nodeFieldLocked(node, name, true, "NodeProtoField")
}

func (s *Supervisor) nodeFieldLocked(node *scene.Node, name string, searchInProto bool, op string) *scene.Field {
	if !s.validNodeLocked(node, op) {
		return nil
	}
	if name == "" {
		s.diag(op, "called with an empty field name")
		return nil
	}

	result := s.registry.FindField(name, node.ID)
	if result == nil {
		s.session.requestedFieldName = name
		s.session.nodeRef = node.ID
		s.session.allowSearchInProto = searchInProto
		s.flushUnlocked()
		if s.session.requestedFieldName != "" {
			// Still armed means the answer carried a valid field reference,
			// prepended to the registry by the frame reader.
			s.session.requestedFieldName = ""
			result = s.registry.HeadField()
			if result != nil && (searchInProto || node.ProtoInternal) {
				result.ProtoInternal = true
			}
		}
		s.session.allowSearchInProto = false
	}
	return result
}

// FieldType returns the field's type tag, or scene.NoField on misuse.
func (s *Supervisor) FieldType(f *scene.Field) scene.FieldType {
	if !s.checkField(f, "FieldType", scene.NoField, false, nil, false, false) {
		return scene.NoField
	}
	return f.Type
}

// FieldTypeName returns the scene-graph name of the field's type.
func (s *Supervisor) FieldTypeName(f *scene.Field) string {
	if !s.checkField(f, "FieldTypeName", scene.NoField, false, nil, false, false) {
		return ""
	}
	return f.Type.String()
}

// FieldCount returns the element count of an MF field, or -1 on misuse.
func (s *Supervisor) FieldCount(f *scene.Field) int {
	if !s.checkField(f, "FieldCount", scene.NoField, false, nil, false, false) {
		return -1
	}
	if !f.Type.IsMF() {
		s.diag("FieldCount", "can only be used with multi-valued (MF) fields")
		return -1
	}
	return f.Count
}

// checkField validates a field argument the way every typed accessor
// needs: supervisor role, live handle, writability, expected type, and,
// for MF types, index range with negative-index resolution (the index is
// rewritten in place).
func (s *Supervisor) checkField(f *scene.Field, op string, want scene.FieldType, checkType bool, index *int, importing, denyProtoInternal bool) bool {
	if !s.checkRole(op) {
		return false
	}
	if f == nil {
		if !s.driver.Quitting() {
			s.diag(op, "called with a nil field handle")
		}
		return false
	}

	s.mu.Lock()
	valid := s.registry.ValidField(f)
	s.mu.Unlock()
	if !valid {
		s.diag(op, "called with an invalid field handle")
		return false
	}

	if denyProtoInternal && f.ProtoInternal {
		s.diag(op, "called on a read-only PROTO internal field")
		return false
	}

	if checkType && f.Type != want {
		s.diag(op, "called with the wrong field type", logging.String("type", f.Type.String()))
		return false
	}

	if want.IsMF() {
		count := f.Count
		offset := -1
		if importing {
			offset = 0
		}
		if *index < -(count+1+offset) || *index > count+offset {
			s.diag(op, "called with an out-of-bound index",
				logging.Int("index", *index),
				logging.Int("min", -(count+1+offset)),
				logging.Int("max", count+offset))
			return false
		}
		if *index < 0 {
			*index += count + 1 + offset
		}
	}
	return true
}

// fieldOperation runs a coalescing-aware field round trip from an API
// entry point.
func (s *Supervisor) fieldOperation(f *scene.Field, kind requestKind, index int, data scene.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fieldOperationLocked(f, kind, index, data)
}

// FieldSFBool reads a single-valued boolean field.
func (s *Supervisor) FieldSFBool(f *scene.Field) bool {
	if !s.checkField(f, "FieldSFBool", scene.SFBool, true, nil, false, false) {
		return false
	}
	s.fieldOperation(f, requestGet, -1, scene.Value{})
	return f.Data.Bool
}

// FieldSFInt32 reads a single-valued integer field.
func (s *Supervisor) FieldSFInt32(f *scene.Field) int32 {
	if !s.checkField(f, "FieldSFInt32", scene.SFInt32, true, nil, false, false) {
		return 0
	}
	s.fieldOperation(f, requestGet, -1, scene.Value{})
	return f.Data.Int32
}

// FieldSFFloat reads a single-valued float field.
func (s *Supervisor) FieldSFFloat(f *scene.Field) float64 {
	if !s.checkField(f, "FieldSFFloat", scene.SFFloat, true, nil, false, false) {
		return 0
	}
	s.fieldOperation(f, requestGet, -1, scene.Value{})
	return f.Data.Float
}

// FieldSFVec2f reads a single-valued 2D vector field.
func (s *Supervisor) FieldSFVec2f(f *scene.Field) [2]float64 {
	if !s.checkField(f, "FieldSFVec2f", scene.SFVec2f, true, nil, false, false) {
		return [2]float64{}
	}
	s.fieldOperation(f, requestGet, -1, scene.Value{})
	return [2]float64{f.Data.Vec[0], f.Data.Vec[1]}
}

// FieldSFVec3f reads a single-valued 3D vector field.
func (s *Supervisor) FieldSFVec3f(f *scene.Field) [3]float64 {
	if !s.checkField(f, "FieldSFVec3f", scene.SFVec3f, true, nil, false, false) {
		return [3]float64{}
	}
	s.fieldOperation(f, requestGet, -1, scene.Value{})
	return [3]float64{f.Data.Vec[0], f.Data.Vec[1], f.Data.Vec[2]}
}

// FieldSFRotation reads a single-valued axis-angle rotation field.
func (s *Supervisor) FieldSFRotation(f *scene.Field) [4]float64 {
	if !s.checkField(f, "FieldSFRotation", scene.SFRotation, true, nil, false, false) {
		return [4]float64{}
	}
	s.fieldOperation(f, requestGet, -1, scene.Value{})
	return f.Data.Vec
}

// FieldSFColor reads a single-valued RGB color field.
func (s *Supervisor) FieldSFColor(f *scene.Field) [3]float64 {
	if !s.checkField(f, "FieldSFColor", scene.SFColor, true, nil, false, false) {
		return [3]float64{}
	}
	s.fieldOperation(f, requestGet, -1, scene.Value{})
	return [3]float64{f.Data.Vec[0], f.Data.Vec[1], f.Data.Vec[2]}
}

// FieldSFString reads a single-valued string field.
func (s *Supervisor) FieldSFString(f *scene.Field) string {
	if !s.checkField(f, "FieldSFString", scene.SFString, true, nil, false, false) {
		return ""
	}
	s.fieldOperation(f, requestGet, -1, scene.Value{})
	return f.Data.String
}

// FieldSFNode reads a single-valued node field, resolving the referenced
// node's handle.
func (s *Supervisor) FieldSFNode(f *scene.Field) *scene.Node {
	if !s.checkField(f, "FieldSFNode", scene.SFNode, true, nil, false, false) {
		return nil
	}
	s.fieldOperation(f, requestGet, -1, scene.Value{})
	if f.Data.NodeID <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	result := s.registry.FindNodeByID(int(f.Data.NodeID))
	if result != nil && f.ProtoInternal {
		result.ProtoInternal = true
	}
	return result
}

// FieldMFBool reads one element of a multi-valued boolean field. Negative
// indexes address from the end.
func (s *Supervisor) FieldMFBool(f *scene.Field, index int) bool {
	if !s.checkField(f, "FieldMFBool", scene.MFBool, true, &index, false, false) {
		return false
	}
	s.fieldOperation(f, requestGet, index, scene.Value{})
	return f.Data.Bool
}

// FieldMFInt32 reads one element of a multi-valued integer field.
func (s *Supervisor) FieldMFInt32(f *scene.Field, index int) int32 {
	if !s.checkField(f, "FieldMFInt32", scene.MFInt32, true, &index, false, false) {
		return 0
	}
	s.fieldOperation(f, requestGet, index, scene.Value{})
	return f.Data.Int32
}

// FieldMFFloat reads one element of a multi-valued float field.
func (s *Supervisor) FieldMFFloat(f *scene.Field, index int) float64 {
	if !s.checkField(f, "FieldMFFloat", scene.MFFloat, true, &index, false, false) {
		return 0
	}
	s.fieldOperation(f, requestGet, index, scene.Value{})
	return f.Data.Float
}

// FieldMFVec2f reads one element of a multi-valued 2D vector field.
func (s *Supervisor) FieldMFVec2f(f *scene.Field, index int) [2]float64 {
	if !s.checkField(f, "FieldMFVec2f", scene.MFVec2f, true, &index, false, false) {
		return [2]float64{}
	}
	s.fieldOperation(f, requestGet, index, scene.Value{})
	return [2]float64{f.Data.Vec[0], f.Data.Vec[1]}
}

// FieldMFVec3f reads one element of a multi-valued 3D vector field.
func (s *Supervisor) FieldMFVec3f(f *scene.Field, index int) [3]float64 {
	if !s.checkField(f, "FieldMFVec3f", scene.MFVec3f, true, &index, false, false) {
		return [3]float64{}
	}
	s.fieldOperation(f, requestGet, index, scene.Value{})
	return [3]float64{f.Data.Vec[0], f.Data.Vec[1], f.Data.Vec[2]}
}

// FieldMFRotation reads one element of a multi-valued rotation field.
func (s *Supervisor) FieldMFRotation(f *scene.Field, index int) [4]float64 {
	if !s.checkField(f, "FieldMFRotation", scene.MFRotation, true, &index, false, false) {
		return [4]float64{}
	}
	s.fieldOperation(f, requestGet, index, scene.Value{})
	return f.Data.Vec
}

// FieldMFColor reads one element of a multi-valued color field.
func (s *Supervisor) FieldMFColor(f *scene.Field, index int) [3]float64 {
	if !s.checkField(f, "FieldMFColor", scene.MFColor, true, &index, false, false) {
		return [3]float64{}
	}
	s.fieldOperation(f, requestGet, index, scene.Value{})
	return [3]float64{f.Data.Vec[0], f.Data.Vec[1], f.Data.Vec[2]}
}

// FieldMFString reads one element of a multi-valued string field.
func (s *Supervisor) FieldMFString(f *scene.Field, index int) string {
	if !s.checkField(f, "FieldMFString", scene.MFString, true, &index, false, false) {
		return ""
	}
	s.fieldOperation(f, requestGet, index, scene.Value{})
	return f.Data.String
}

// FieldMFNode reads one element of a multi-valued node field, resolving
// the referenced node's handle.
func (s *Supervisor) FieldMFNode(f *scene.Field, index int) *scene.Node {
	if !s.checkField(f, "FieldMFNode", scene.MFNode, true, &index, false, false) {
		return nil
	}
	s.fieldOperation(f, requestGet, index, scene.Value{})
	if f.Data.NodeID <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	result := s.registry.FindNodeByID(int(f.Data.NodeID))
	if result != nil && f.ProtoInternal {
		result.ProtoInternal = true
	}
	return result
}

// FieldSetSFBool writes a single-valued boolean field. Like every setter
// it is deferred: the mutation rides the next step's outbound frame.
func (s *Supervisor) FieldSetSFBool(f *scene.Field, value bool) {
	if !s.checkField(f, "FieldSetSFBool", scene.SFBool, true, nil, false, true) {
		return
	}
	s.fieldOperation(f, requestSet, -1, scene.Value{Bool: value})
}

// FieldSetSFInt32 writes a single-valued integer field.
func (s *Supervisor) FieldSetSFInt32(f *scene.Field, value int32) {
	if !s.checkField(f, "FieldSetSFInt32", scene.SFInt32, true, nil, false, true) {
		return
	}
	s.fieldOperation(f, requestSet, -1, scene.Value{Int32: value})
}

// FieldSetSFFloat writes a single-valued float field.
func (s *Supervisor) FieldSetSFFloat(f *scene.Field, value float64) {
	if !s.checkField(f, "FieldSetSFFloat", scene.SFFloat, true, nil, false, true) {
		return
	}
	if !scene.ValidFloat(value) {
		s.diag("FieldSetSFFloat", "value must be finite")
		return
	}
	s.fieldOperation(f, requestSet, -1, scene.Value{Float: value})
}

// FieldSetSFVec2f writes a single-valued 2D vector field.
func (s *Supervisor) FieldSetSFVec2f(f *scene.Field, values [2]float64) {
	if !s.checkField(f, "FieldSetSFVec2f", scene.SFVec2f, true, nil, false, true) {
		return
	}
	if !scene.ValidVector(values[:]) {
		s.diag("FieldSetSFVec2f", "vector components must be finite")
		return
	}
	s.fieldOperation(f, requestSet, -1, scene.Value{Vec: [4]float64{values[0], values[1]}})
}

// FieldSetSFVec3f writes a single-valued 3D vector field.
func (s *Supervisor) FieldSetSFVec3f(f *scene.Field, values [3]float64) {
	if !s.checkField(f, "FieldSetSFVec3f", scene.SFVec3f, true, nil, false, true) {
		return
	}
	if !scene.ValidVector(values[:]) {
		s.diag("FieldSetSFVec3f", "vector components must be finite")
		return
	}
	s.fieldOperation(f, requestSet, -1, scene.Value{Vec: [4]float64{values[0], values[1], values[2]}})
}

// FieldSetSFRotation writes a single-valued axis-angle rotation field.
// The axis must not be all-zero.
func (s *Supervisor) FieldSetSFRotation(f *scene.Field, values [4]float64) {
	if !s.checkField(f, "FieldSetSFRotation", scene.SFRotation, true, nil, false, true) {
		return
	}
	if !scene.ValidVector(values[:]) {
		s.diag("FieldSetSFRotation", "rotation components must be finite")
		return
	}
	if !scene.ValidRotation(values) {
		s.diag("FieldSetSFRotation", "rotation axis must not be all-zero")
		return
	}
	s.fieldOperation(f, requestSet, -1, scene.Value{Vec: values})
}

// FieldSetSFColor writes a single-valued color field. Every component
// must lie in [0,1].
func (s *Supervisor) FieldSetSFColor(f *scene.Field, values [3]float64) {
	if !s.checkField(f, "FieldSetSFColor", scene.SFColor, true, nil, false, true) {
		return
	}
	if !scene.ValidColor(values) {
		s.diag("FieldSetSFColor", "RGB components must lie in [0,1]")
		return
	}
	s.fieldOperation(f, requestSet, -1, scene.Value{Vec: [4]float64{values[0], values[1], values[2]}})
}

// FieldSetSFString writes a single-valued string field.
func (s *Supervisor) FieldSetSFString(f *scene.Field, value string) {
	if !s.checkField(f, "FieldSetSFString", scene.SFString, true, nil, false, true) {
		return
	}
	s.fieldOperation(f, requestSet, -1, scene.Value{String: value})
}

// FieldSetMFBool writes one element of a multi-valued boolean field.
func (s *Supervisor) FieldSetMFBool(f *scene.Field, index int, value bool) {
	if !s.checkField(f, "FieldSetMFBool", scene.MFBool, true, &index, false, true) {
		return
	}
	s.fieldOperation(f, requestSet, index, scene.Value{Bool: value})
}

// FieldSetMFInt32 writes one element of a multi-valued integer field.
func (s *Supervisor) FieldSetMFInt32(f *scene.Field, index int, value int32) {
	if !s.checkField(f, "FieldSetMFInt32", scene.MFInt32, true, &index, false, true) {
		return
	}
	s.fieldOperation(f, requestSet, index, scene.Value{Int32: value})
}

// FieldSetMFFloat writes one element of a multi-valued float field.
func (s *Supervisor) FieldSetMFFloat(f *scene.Field, index int, value float64) {
	if !s.checkField(f, "FieldSetMFFloat", scene.MFFloat, true, &index, false, true) {
		return
	}
	if !scene.ValidFloat(value) {
		s.diag("FieldSetMFFloat", "value must be finite")
		return
	}
	s.fieldOperation(f, requestSet, index, scene.Value{Float: value})
}

// FieldSetMFVec2f writes one element of a multi-valued 2D vector field.
func (s *Supervisor) FieldSetMFVec2f(f *scene.Field, index int, values [2]float64) {
	if !s.checkField(f, "FieldSetMFVec2f", scene.MFVec2f, true, &index, false, true) {
		return
	}
	if !scene.ValidVector(values[:]) {
		s.diag("FieldSetMFVec2f", "vector components must be finite")
		return
	}
	s.fieldOperation(f, requestSet, index, scene.Value{Vec: [4]float64{values[0], values[1]}})
}

// FieldSetMFVec3f writes one element of a multi-valued 3D vector field.
func (s *Supervisor) FieldSetMFVec3f(f *scene.Field, index int, values [3]float64) {
	if !s.checkField(f, "FieldSetMFVec3f", scene.MFVec3f, true, &index, false, true) {
		return
	}
	if !scene.ValidVector(values[:]) {
		s.diag("FieldSetMFVec3f", "vector components must be finite")
		return
	}
	s.fieldOperation(f, requestSet, index, scene.Value{Vec: [4]float64{values[0], values[1], values[2]}})
}

// FieldSetMFRotation writes one element of a multi-valued rotation field.
func (s *Supervisor) FieldSetMFRotation(f *scene.Field, index int, values [4]float64) {
	if !s.checkField(f, "FieldSetMFRotation", scene.MFRotation, true, &index, false, true) {
		return
	}
	if !scene.ValidVector(values[:]) {
		s.diag("FieldSetMFRotation", "rotation components must be finite")
		return
	}
	if !scene.ValidRotation(values) {
		s.diag("FieldSetMFRotation", "rotation axis must not be all-zero")
		return
	}
	s.fieldOperation(f, requestSet, index, scene.Value{Vec: values})
}

// FieldSetMFColor writes one element of a multi-valued color field.
func (s *Supervisor) FieldSetMFColor(f *scene.Field, index int, values [3]float64) {
	if !s.checkField(f, "FieldSetMFColor", scene.MFColor, true, &index, false, true) {
		return
	}
	if !scene.ValidColor(values) {
		s.diag("FieldSetMFColor", "RGB components must lie in [0,1]")
		return
	}
	s.fieldOperation(f, requestSet, index, scene.Value{Vec: [4]float64{values[0], values[1], values[2]}})
}

// FieldSetMFString writes one element of a multi-valued string field.
func (s *Supervisor) FieldSetMFString(f *scene.Field, index int, value string) {
	if !s.checkField(f, "FieldSetMFString", scene.MFString, true, &index, false, true) {
		return
	}
	s.fieldOperation(f, requestSet, index, scene.Value{String: value})
}
