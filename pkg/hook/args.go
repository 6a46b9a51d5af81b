package hook

// PromptEngineArgs are the parameters of the governed multi-step prompt tool.
type PromptEngineArgs struct {
	Command     string `mapstructure:"command"`
	ChainID     string `mapstructure:"chain_id"`
	GateVerdict string `mapstructure:"gate_verdict"`
}

// FileEditArgs covers the write and replace tools.
type FileEditArgs struct {
	FilePath    string `mapstructure:"file_path"`
	FilePathAlt string `mapstructure:"filePath"`
	OldString   string `mapstructure:"old_string"`
	OldAlt      string `mapstructure:"oldString"`
	Content     string `mapstructure:"content"`
}

// Path returns the edited file, "unknown" when the host sent none.
func (a FileEditArgs) Path() string {
	return firstNonEmpty(a.FilePath, a.FilePathAlt, "unknown")
}

// Old returns the replaced text.
func (a FileEditArgs) Old() string {
	return firstNonEmpty(a.OldString, a.OldAlt)
}

// ShellArgs covers shell execution tools.
type ShellArgs struct {
	Command string `mapstructure:"command"`
}

// TaskArgs covers sub-agent delegation tools.
type TaskArgs struct {
	SubagentType    string `mapstructure:"subagent_type"`
	AgentType       string `mapstructure:"agent_type"`
	SubagentTypeAlt string `mapstructure:"subagentType"`
}

// Agent returns the delegated agent type, "unknown" when absent.
func (a TaskArgs) Agent() string {
	return firstNonEmpty(a.SubagentType, a.AgentType, a.SubagentTypeAlt, "unknown")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
