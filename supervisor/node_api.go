package supervisor

import "github.com/signalsfoundry/scene-supervisor/scene"

// Root returns the handle of the scene root (id 0).
func (s *Supervisor) Root() *scene.Node {
	if !s.checkRole("Root") {
		return nil
	}
	return s.root
}

// Self returns the handle of the controller's own robot node. It is nil
// until the simulator's configure answer has been processed.
func (s *Supervisor) Self() *scene.Node {
	if !s.checkRole("Self") {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.self
}

// nodeFromIDLocked resolves a node handle by id, round-tripping when the
// registry does not hold it yet. Requires the step lock.
func (s *Supervisor) nodeFromIDLocked(id int) *scene.Node {
	if id < 0 {
		return nil
	}
	result := s.registry.FindNodeByID(id)
	if result == nil {
		s.session.nodeID = id
		s.flushUnlocked()
		result = s.registry.FindNodeByID(id)
		s.session.nodeID = -1
	}
	return result
}

// NodeFromID resolves the node with the given simulator-assigned id.
func (s *Supervisor) NodeFromID(id int) *scene.Node {
	if !s.checkRole("NodeFromID") {
		return nil
	}
	if id < 0 {
		s.diag("NodeFromID", "called with a negative id")
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodeFromIDLocked(id)
}

// NodeFromDEF resolves a node by DEF name. The def argument may be a
// dotted DEF-path expression naming enclosing PROTO instances; the last
// segment is the effective DEF name.
func (s *Supervisor) NodeFromDEF(def string) *scene.Node {
	if !s.checkRole("NodeFromDEF") {
		return nil
	}
	if def == "" {
		s.diag("NodeFromDEF", "called with an empty def")
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	result := s.registry.FindNodeByDEF(def, nil)
	if result == nil {
		s.session.nodeDEFName = def
		s.session.nodeID = -1
		s.flushUnlocked()
		if s.session.nodeID >= 0 {
			result = s.registry.FindNodeByID(s.session.nodeID)
		}
		s.session.nodeDEFName = ""
		s.session.nodeID = -1
	}
	return result
}

// NodeFromDevice resolves the node wrapping the device with the given tag.
func (s *Supervisor) NodeFromDevice(tag int) *scene.Node {
	if !s.checkRole("NodeFromDevice") {
		return nil
	}
	if tag <= 0 {
		s.diag("NodeFromDevice", "called with an invalid device tag")
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	result := s.registry.FindNodeByTag(tag)
	if result == nil {
		s.session.nodeTag = tag
		s.session.nodeID = -1
		s.flushUnlocked()
		if s.session.nodeID >= 0 {
			result = s.registry.FindNodeByID(s.session.nodeID)
		}
		s.session.nodeTag = -1
		s.session.nodeID = -1
	}
	return result
}

// NodeFromProtoDEF resolves a node by DEF name inside the scope of a PROTO
// instance. The handle comes back read-only: it is flagged PROTO-internal
// and owned by the given PROTO.
func (s *Supervisor) NodeFromProtoDEF(node *scene.Node, def string) *scene.Node {
	if !s.checkRole("NodeFromProtoDEF") {
		return nil
	}
	if def == "" {
		s.diag("NodeFromProtoDEF", "called with an empty def")
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validNodeLocked(node, "NodeFromProtoDEF") {
		return nil
	}
	if !node.IsProto {
		s.diag("NodeFromProtoDEF", "node is not a PROTO node")
		return nil
	}

	result := s.registry.FindNodeByDEF(def, node)
	if result == nil {
		s.session.nodeDEFName = def
		s.session.nodeID = -1
		s.session.protoID = node.ID
		s.flushUnlocked()
		if s.session.nodeID >= 0 {
			result = s.registry.FindNodeByID(s.session.nodeID)
			if result != nil {
				result.ProtoInternal = true
				result.ParentProto = node
			}
		}
		s.session.nodeDEFName = ""
		s.session.nodeID = -1
		s.session.protoID = -1
	}
	return result
}

// SelectedNode returns the node currently selected in the simulator's
// scene tree, or nil when nothing is selected.
func (s *Supervisor) SelectedNode() *scene.Node {
	if !s.checkRole("SelectedNode") {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var result *scene.Node
	s.session.nodeGetSelected = true
	s.session.nodeID = -1
	s.flushUnlocked()
	if s.session.nodeID >= 0 {
		result = s.registry.FindNodeByID(s.session.nodeID)
	}
	s.session.nodeID = -1
	s.session.nodeGetSelected = false
	return result
}

// ParentNode resolves the handle of the node's parent, or nil for the
// root and for nodes whose parent was removed.
func (s *Supervisor) ParentNode(node *scene.Node) *scene.Node {
	if !s.checkRole("ParentNode") {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validNodeLocked(node, "ParentNode") {
		return nil
	}
	return s.nodeFromIDLocked(node.ParentID)
}

// NodeID returns the simulator-assigned unique id, or -1 on misuse.
// PROTO-internal handles have no externally addressable id.
func (s *Supervisor) NodeID(node *scene.Node) int {
	if !s.checkRole("NodeID") {
		return -1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validNodeLocked(node, "NodeID") {
		return -1
	}
	if node.ProtoInternal {
		s.diag("NodeID", "called for an internal PROTO node")
		return -1
	}
	return node.ID
}

// NodeDEF returns the node's DEF name, or "" when it has none.
func (s *Supervisor) NodeDEF(node *scene.Node) string {
	if !s.checkRole("NodeDEF") {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validNodeLocked(node, "NodeDEF") {
		return ""
	}
	return node.DEFName
}

// NodeType returns the node's base type tag.
func (s *Supervisor) NodeType(node *scene.Node) scene.NodeType {
	if !s.checkRole("NodeType") {
		return scene.NodeNoNode
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validNodeLocked(node, "NodeType") {
		return scene.NodeNoNode
	}
	return node.Type
}

// NodeTypeName returns the node's model name when it has one and the base
// type name otherwise.
func (s *Supervisor) NodeTypeName(node *scene.Node) string {
	if !s.checkRole("NodeTypeName") {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validNodeLocked(node, "NodeTypeName") {
		return ""
	}
	if node.ModelName != "" {
		return node.ModelName
	}
	return node.Type.String()
}

// NodeBaseTypeName returns the base type name regardless of model.
func (s *Supervisor) NodeBaseTypeName(node *scene.Node) string {
	if !s.checkRole("NodeBaseTypeName") {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validNodeLocked(node, "NodeBaseTypeName") {
		return ""
	}
	return node.Type.String()
}

// NodeIsProto reports whether the node is a PROTO instance.
func (s *Supervisor) NodeIsProto(node *scene.Node) bool {
	if !s.checkRole("NodeIsProto") {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validNodeLocked(node, "NodeIsProto") {
		return false
	}
	return node.IsProto
}

// NodePosition returns the node's world position. Nodes without a
// transform yield a NaN vector.
func (s *Supervisor) NodePosition(node *scene.Node) []float64 {
	if !s.checkRole("NodePosition") {
		return invalidVector(3)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validNodeLocked(node, "NodePosition") {
		return invalidVector(3)
	}
	s.session.positionNode = node
	s.flushUnlocked()
	s.session.positionNode = nil
	if node.Position == nil {
		return invalidVector(3)
	}
	return node.Position
}

// NodeOrientation returns the node's 3x3 rotation matrix in row-major
// order. Nodes without a transform yield a NaN vector.
func (s *Supervisor) NodeOrientation(node *scene.Node) []float64 {
	if !s.checkRole("NodeOrientation") {
		return invalidVector(9)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validNodeLocked(node, "NodeOrientation") {
		return invalidVector(9)
	}
	s.session.orientationNode = node
	s.flushUnlocked()
	s.session.orientationNode = nil
	if node.Orientation == nil {
		return invalidVector(9)
	}
	return node.Orientation
}

// NodeCenterOfMass returns the node's center of mass. Non-solid nodes
// yield a NaN vector.
func (s *Supervisor) NodeCenterOfMass(node *scene.Node) []float64 {
	if !s.checkRole("NodeCenterOfMass") {
		return invalidVector(3)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validNodeLocked(node, "NodeCenterOfMass") {
		return invalidVector(3)
	}
	s.session.centerOfMassNode = node
	s.flushUnlocked()
	s.session.centerOfMassNode = nil
	if node.CenterOfMass == nil {
		return invalidVector(3)
	}
	return node.CenterOfMass
}

// refreshContactPointsLocked re-fetches the node's contact points unless
// they were already fetched during the current simulation step. Requires
// the step lock.
func (s *Supervisor) refreshContactPointsLocked(node *scene.Node, includeDescendants bool) {
	t := s.driver.Time()
	if t <= node.ContactPointsTime {
		return
	}
	node.ContactPointsTime = t
	s.session.contactPointsNode = node
	s.session.contactPointsIncludeDescendants = includeDescendants
	s.flushUnlocked()
	s.session.contactPointsNode = nil
}

// NodeContactPoint returns the world coordinates of the index-th contact
// point, or a NaN vector when the node is not a solid or has fewer
// contacts.
func (s *Supervisor) NodeContactPoint(node *scene.Node, index int) []float64 {
	if !s.checkRole("NodeContactPoint") {
		return invalidVector(3)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validNodeLocked(node, "NodeContactPoint") {
		return invalidVector(3)
	}
	s.refreshContactPointsLocked(node, false)
	if node.ContactPoints == nil || index < 0 || index >= node.NumContactPoints {
		return invalidVector(3)
	}
	return node.ContactPoints[3*index : 3*index+3]
}

// NodeContactPointNode returns the handle of the solid that generated the
// index-th contact point. The handle may be PROTO-internal.
func (s *Supervisor) NodeContactPointNode(node *scene.Node, index int) *scene.Node {
	if !s.checkRole("NodeContactPointNode") {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validNodeLocked(node, "NodeContactPointNode") {
		return nil
	}
	s.refreshContactPointsLocked(node, false)
	if node.ContactPoints == nil || index < 0 || index >= node.NumContactPoints {
		return nil
	}
	s.session.allowsContactPointInternalNode = true
	result := s.nodeFromIDLocked(node.ContactPointNodeIDs[index])
	s.session.allowsContactPointInternalNode = false
	return result
}

// NodeNumberOfContactPoints returns the number of contact points of the
// node, optionally including its descendants, or -1 when the node is not
// a solid. Repeated calls within the same simulation step answer from the
// cache without a round trip.
func (s *Supervisor) NodeNumberOfContactPoints(node *scene.Node, includeDescendants bool) int {
	if !s.checkRole("NodeNumberOfContactPoints") {
		return -1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validNodeLocked(node, "NodeNumberOfContactPoints") {
		return -1
	}
	s.refreshContactPointsLocked(node, includeDescendants)
	return node.NumContactPoints
}

// NodeStaticBalance reports whether the top solid is statically balanced.
func (s *Supervisor) NodeStaticBalance(node *scene.Node) bool {
	if !s.checkRole("NodeStaticBalance") {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validNodeLocked(node, "NodeStaticBalance") {
		return false
	}
	s.session.staticBalanceNode = node
	s.flushUnlocked()
	s.session.staticBalanceNode = nil
	return node.StaticBalance
}

// NodeVelocity returns the node's linear and angular velocity as six
// components, or a NaN vector for non-solid nodes.
func (s *Supervisor) NodeVelocity(node *scene.Node) []float64 {
	if !s.checkRole("NodeVelocity") {
		return invalidVector(6)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validNodeLocked(node, "NodeVelocity") {
		return invalidVector(6)
	}
	node.Velocity = nil
	s.session.getVelocityNode = node
	s.flushUnlocked()
	s.session.getVelocityNode = nil
	if node.Velocity == nil {
		return invalidVector(6)
	}
	return node.Velocity
}

// NodeSetVelocity sets the node's linear and angular velocity.
func (s *Supervisor) NodeSetVelocity(node *scene.Node, velocity [6]float64) {
	if !s.checkRole("NodeSetVelocity") {
		return
	}
	if !scene.ValidVector(velocity[:]) {
		s.diag("NodeSetVelocity", "velocity components must be finite")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validNodeLocked(node, "NodeSetVelocity") {
		return
	}
	s.session.setVelocityNode = node
	s.session.velocity = velocity
	s.flushUnlocked()
	s.session.setVelocityNode = nil
}

// NodeResetPhysics zeroes the node's velocities and forces.
func (s *Supervisor) NodeResetPhysics(node *scene.Node) {
	if !s.checkRole("NodeResetPhysics") {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validNodeLocked(node, "NodeResetPhysics") {
		return
	}
	s.session.resetPhysicsNode = node
	s.flushUnlocked()
	s.session.resetPhysicsNode = nil
}

// NodeRestartController restarts the controller process of a robot node.
func (s *Supervisor) NodeRestartController(node *scene.Node) {
	if !s.checkRole("NodeRestartController") {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validNodeLocked(node, "NodeRestartController") {
		return
	}
	s.session.restartControllerNode = node
	s.flushUnlocked()
	s.session.restartControllerNode = nil
}

// NodeSetVisibility shows or hides the node for one specific viewer,
// which must be the viewpoint or a camera, lidar, or range-finder device.
func (s *Supervisor) NodeSetVisibility(node, from *scene.Node, visible bool) {
	if !s.checkRole("NodeSetVisibility") {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validNodeLocked(node, "NodeSetVisibility") {
		return
	}
	if !s.registry.ValidNode(from) {
		s.diag("NodeSetVisibility", "called with a nil or invalid viewer node")
		return
	}
	if from.Type != scene.NodeViewpoint && from.Type != scene.NodeCamera &&
		from.Type != scene.NodeLidar && from.Type != scene.NodeRangeFinder {
		s.diag("NodeSetVisibility", "viewer must be the viewpoint or a camera, lidar, or range-finder device")
		return
	}
	s.session.visibilityNode = node
	s.session.visibilityFromNode = from
	s.session.nodeVisible = visible
	s.flushUnlocked()
	s.session.visibilityNode = nil
	s.session.visibilityFromNode = nil
}

// NodeMoveViewpoint moves the viewpoint to frame the given node.
func (s *Supervisor) NodeMoveViewpoint(node *scene.Node) {
	if !s.checkRole("NodeMoveViewpoint") {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validNodeLocked(node, "NodeMoveViewpoint") {
		return
	}
	s.session.moveViewpointNode = node
	s.flushUnlocked()
	s.session.moveViewpointNode = nil
}

// NodeAddForce applies a force to the node's center of mass for the
// current step, optionally expressed in the node's own frame.
func (s *Supervisor) NodeAddForce(node *scene.Node, force [3]float64, relative bool) {
	if !s.checkRole("NodeAddForce") {
		return
	}
	if !scene.ValidVector(force[:]) {
		s.diag("NodeAddForce", "force components must be finite")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validNodeLocked(node, "NodeAddForce") {
		return
	}
	s.session.addForceNode = node
	s.session.forceOrTorque = force
	s.session.forceRelative = relative
	s.flushUnlocked()
	s.session.addForceNode = nil
}

// NodeAddForceWithOffset applies a force at an offset from the node's
// center of mass.
func (s *Supervisor) NodeAddForceWithOffset(node *scene.Node, force, offset [3]float64, relative bool) {
	if !s.checkRole("NodeAddForceWithOffset") {
		return
	}
	if !scene.ValidVector(force[:]) {
		s.diag("NodeAddForceWithOffset", "force components must be finite")
		return
	}
	if !scene.ValidVector(offset[:]) {
		s.diag("NodeAddForceWithOffset", "offset components must be finite")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validNodeLocked(node, "NodeAddForceWithOffset") {
		return
	}
	s.session.addForceWithOffsetNode = node
	s.session.forceOrTorque = force
	s.session.forceOffset = offset
	s.session.forceRelative = relative
	s.flushUnlocked()
	s.session.addForceWithOffsetNode = nil
}

// NodeAddTorque applies a torque to the node for the current step.
func (s *Supervisor) NodeAddTorque(node *scene.Node, torque [3]float64, relative bool) {
	if !s.checkRole("NodeAddTorque") {
		return
	}
	if !scene.ValidVector(torque[:]) {
		s.diag("NodeAddTorque", "torque components must be finite")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validNodeLocked(node, "NodeAddTorque") {
		return
	}
	s.session.addTorqueNode = node
	s.session.forceOrTorque = torque
	s.session.forceRelative = relative
	s.flushUnlocked()
	s.session.addTorqueNode = nil
}

// NodeRemove deletes the node from the scene. The root, the viewpoint,
// and the world info node cannot be removed.
func (s *Supervisor) NodeRemove(node *scene.Node) {
	if !s.checkRole("NodeRemove") {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validNodeLocked(node, "NodeRemove") || node.ID == 0 {
		if node != nil && node.ID == 0 {
			s.diag("NodeRemove", "the root node cannot be removed")
		}
		return
	}
	if node.Type == scene.NodeViewpoint || node.Type == scene.NodeWorldInfo {
		s.diag("NodeRemove", "the viewpoint and world info nodes cannot be removed")
		return
	}
	s.session.nodeToRemove = node
	s.flushUnlocked()
}
