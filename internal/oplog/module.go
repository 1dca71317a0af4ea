// Package oplog derives human-readable views from operation log entries:
// field labels, display values, per-field change sets, and one-line
// summaries. Every function here is pure and total: arbitrary JSON input
// maps to some string, never to an error.
package oplog

// Module is the category of backend entity an operation acted on.
type Module string

const (
	ModuleChannel    Module = "channel"
	ModuleOption     Module = "option"
	ModuleUser       Module = "user"
	ModuleToken      Module = "token"
	ModuleModel      Module = "model"
	ModuleRedemption Module = "redemption"
)

// Action is the kind of mutation an operation performed.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionEnable  Action = "enable"
	ActionDisable Action = "disable"
)

var moduleLabels = map[Module]string{
	ModuleChannel:    "渠道",
	ModuleOption:     "系统参数",
	ModuleUser:       "用户",
	ModuleToken:      "令牌",
	ModuleModel:      "模型",
	ModuleRedemption: "兑换码",
}

var actionLabels = map[Action]string{
	ActionCreate:  "创建",
	ActionUpdate:  "更新",
	ActionDelete:  "删除",
	ActionEnable:  "启用",
	ActionDisable: "禁用",
}

// Modules lists all known modules in display order.
func Modules() []Module {
	return []Module{ModuleChannel, ModuleOption, ModuleUser, ModuleToken, ModuleModel, ModuleRedemption}
}

// Actions lists all known actions in display order.
func Actions() []Action {
	return []Action{ActionCreate, ActionUpdate, ActionDelete, ActionEnable, ActionDisable}
}

// ValidModule reports whether m is a known module.
func ValidModule(m Module) bool {
	_, ok := moduleLabels[m]
	return ok
}

// ValidAction reports whether a is a known action.
func ValidAction(a Action) bool {
	_, ok := actionLabels[a]
	return ok
}

// ModuleLabel returns the display name for a module, or the raw value when unknown.
func ModuleLabel(m Module) string {
	if label, ok := moduleLabels[m]; ok {
		return label
	}
	return string(m)
}

// ActionLabel returns the display name for an action, or the raw value when unknown.
func ActionLabel(a Action) string {
	if label, ok := actionLabels[a]; ok {
		return label
	}
	return string(a)
}
