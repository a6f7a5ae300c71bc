// Package role decides which actions a permission tier may attempt.
// The predicate is advisory: the server is the authority, and this
// gate exists to hide affordances and avoid issuing requests that are
// certain to be rejected. It never touches the network.
package role

import "roleboard/internal/model"

// Action is a named operation a role may or may not perform.
type Action int

const (
	ActionCreateProject Action = iota
	ActionUpdateProject
	ActionDeleteProject
	ActionCreateTask
	ActionUpdateTask
	ActionDeleteTask
	ActionManageRoles
)

// Actions lists every gated action.
var Actions = []Action{
	ActionCreateProject,
	ActionUpdateProject,
	ActionDeleteProject,
	ActionCreateTask,
	ActionUpdateTask,
	ActionDeleteTask,
	ActionManageRoles,
}

// userActions are granted to every authenticated account.
var userActions = []Action{
	ActionCreateTask,
	ActionUpdateTask,
}

// managerActions extend userActions.
var managerActions = []Action{
	ActionCreateProject,
	ActionUpdateProject,
	ActionDeleteTask,
}

// adminActions extend managerActions.
var adminActions = []Action{
	ActionDeleteProject,
	ActionManageRoles,
}

// capabilities maps each role to its full action set, built by
// inheritance so the hierarchy user < manager < admin holds by
// construction.
var capabilities = buildCapabilities()

func buildCapabilities() map[model.Role]map[Action]bool {
	caps := map[model.Role]map[Action]bool{
		model.RoleUser:    {},
		model.RoleManager: {},
		model.RoleAdmin:   {},
	}

	grant := func(roles []model.Role, actions []Action) {
		for _, r := range roles {
			for _, a := range actions {
				caps[r][a] = true
			}
		}
	}

	grant([]model.Role{model.RoleUser, model.RoleManager, model.RoleAdmin}, userActions)
	grant([]model.Role{model.RoleManager, model.RoleAdmin}, managerActions)
	grant([]model.Role{model.RoleAdmin}, adminActions)

	return caps
}

// Can reports whether the given role is allowed to attempt the action.
func Can(r model.Role, a Action) bool {
	return capabilities[r][a]
}
