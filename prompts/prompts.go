package prompts

import _ "embed"

// Embedded prompt files

//go:embed agent_system.txt
var agentSystem string

//go:embed format_reminder.txt
var formatReminder string

//go:embed unknown_tool.txt
var unknownTool string

func AgentSystem() string    { return agentSystem }
func FormatReminder() string { return formatReminder }

// UnknownTool is a format string taking the requested action name.
func UnknownTool() string { return unknownTool }
