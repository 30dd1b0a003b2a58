package wire

// Op is the one-byte opcode that prefixes every request and answer in a
// supervisor frame. The numbering is fixed by the simulator's dispatch
// tables and must not be reordered.
type Op uint8

const (
	OpConfigure Op = 0x01

	// Session actions. Exactly one of these may open a frame.
	OpSimulationChangeMode   Op = 0x10
	OpSimulationQuit         Op = 0x11
	OpSimulationReset        Op = 0x12
	OpReloadWorld            Op = 0x13
	OpSimulationResetPhysics Op = 0x14
	OpLoadWorld              Op = 0x15

	// Node and field resolution.
	OpNodeGetFromID    Op = 0x20
	OpNodeGetFromDEF   Op = 0x21
	OpNodeGetFromTag   Op = 0x22
	OpNodeGetSelected  Op = 0x23
	OpFieldGetFromName Op = 0x24

	// Queued field requests.
	OpFieldGetValue             Op = 0x30
	OpFieldSetValue             Op = 0x31
	OpFieldInsertValue          Op = 0x32
	OpFieldImportNodeFromString Op = 0x33
	OpFieldRemoveValue          Op = 0x34
	OpNodeRegenerated           Op = 0x35

	OpSetLabel       Op = 0x40
	OpNodeRemoveNode Op = 0x41

	// Node one-shots.
	OpNodeGetPosition        Op = 0x50
	OpNodeGetOrientation     Op = 0x51
	OpNodeGetCenterOfMass    Op = 0x52
	OpNodeGetContactPoints   Op = 0x53
	OpNodeGetStaticBalance   Op = 0x54
	OpNodeGetVelocity        Op = 0x55
	OpNodeSetVelocity        Op = 0x56
	OpNodeResetPhysics       Op = 0x57
	OpNodeRestartController  Op = 0x58
	OpNodeSetVisibility      Op = 0x59
	OpNodeMoveViewpoint      Op = 0x5a
	OpNodeAddForce           Op = 0x5b
	OpNodeAddForceWithOffset Op = 0x5c
	OpNodeAddTorque          Op = 0x5d

	// Capture and persistence.
	OpExportImage          Op = 0x60
	OpStartMovie           Op = 0x61
	OpStopMovie            Op = 0x62
	OpMovieStatus          Op = 0x63
	OpStartAnimation       Op = 0x64
	OpStopAnimation        Op = 0x65
	OpAnimationStartStatus Op = 0x66
	OpAnimationStopStatus  Op = 0x67
	OpSaveWorld            Op = 0x68

	// Virtual-reality headset queries.
	OpVRHeadsetIsUsed         Op = 0x70
	OpVRHeadsetGetPosition    Op = 0x71
	OpVRHeadsetGetOrientation Op = 0x72
)

var opNames = map[Op]string{
	OpConfigure:                 "configure",
	OpSimulationChangeMode:      "simulation_change_mode",
	OpSimulationQuit:            "simulation_quit",
	OpSimulationReset:           "simulation_reset",
	OpReloadWorld:               "reload_world",
	OpSimulationResetPhysics:    "simulation_reset_physics",
	OpLoadWorld:                 "load_world",
	OpNodeGetFromID:             "node_get_from_id",
	OpNodeGetFromDEF:            "node_get_from_def",
	OpNodeGetFromTag:            "node_get_from_tag",
	OpNodeGetSelected:           "node_get_selected",
	OpFieldGetFromName:          "field_get_from_name",
	OpFieldGetValue:             "field_get_value",
	OpFieldSetValue:             "field_set_value",
	OpFieldInsertValue:          "field_insert_value",
	OpFieldImportNodeFromString: "field_import_node_from_string",
	OpFieldRemoveValue:          "field_remove_value",
	OpNodeRegenerated:           "node_regenerated",
	OpSetLabel:                  "set_label",
	OpNodeRemoveNode:            "node_remove_node",
	OpNodeGetPosition:           "node_get_position",
	OpNodeGetOrientation:        "node_get_orientation",
	OpNodeGetCenterOfMass:       "node_get_center_of_mass",
	OpNodeGetContactPoints:      "node_get_contact_points",
	OpNodeGetStaticBalance:      "node_get_static_balance",
	OpNodeGetVelocity:           "node_get_velocity",
	OpNodeSetVelocity:           "node_set_velocity",
	OpNodeResetPhysics:          "node_reset_physics",
	OpNodeRestartController:     "node_restart_controller",
	OpNodeSetVisibility:         "node_set_visibility",
	OpNodeMoveViewpoint:         "node_move_viewpoint",
	OpNodeAddForce:              "node_add_force",
	OpNodeAddForceWithOffset:    "node_add_force_with_offset",
	OpNodeAddTorque:             "node_add_torque",
	OpExportImage:               "export_image",
	OpStartMovie:                "start_movie",
	OpStopMovie:                 "stop_movie",
	OpMovieStatus:               "movie_status",
	OpStartAnimation:            "start_animation",
	OpStopAnimation:             "stop_animation",
	OpAnimationStartStatus:      "animation_start_status",
	OpAnimationStopStatus:       "animation_stop_status",
	OpSaveWorld:                 "save_world",
	OpVRHeadsetIsUsed:           "vr_headset_is_used",
	OpVRHeadsetGetPosition:      "vr_headset_get_position",
	OpVRHeadsetGetOrientation:   "vr_headset_get_orientation",
}

// String returns the snake_case name of the opcode, or "unknown".
func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "unknown"
}
