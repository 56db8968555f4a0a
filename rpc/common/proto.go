package common

// --------------------------------------------------------------------------
// Command Types
// --------------------------------------------------------------------------

// CommandType enumerates every command the server understands.
// CmdUnknown is the result of every name/arity combination not in the table.
type CommandType uint8

const (
	CmdUnknown CommandType = iota
	CmdGet
	CmdSet
	CmdDel
	CmdKeys
	CmdExpire
	cmdCount
)

// commandSpec describes how a command is recognized on the wire.
// arity counts the command name itself.
type commandSpec struct {
	name  string
	arity int
}

var commandTable = [...]commandSpec{
	CmdUnknown: {name: "unknown", arity: -1},
	CmdGet:     {name: "get", arity: 2},
	CmdSet:     {name: "set", arity: 3},
	CmdDel:     {name: "del", arity: 2},
	CmdKeys:    {name: "keys", arity: 1},
	CmdExpire:  {name: "expire", arity: 3},
}

// fails to compile unless commandTable has exactly one entry per command
var _ = [1]struct{}{}[len(commandTable)-int(cmdCount)]

// ParseCommand resolves the command of a request by exact (case-sensitive)
// name and argument count.
func ParseCommand(args [][]byte) CommandType {
	if len(args) == 0 {
		return CmdUnknown
	}
	for cmd := CmdUnknown + 1; cmd < cmdCount; cmd++ {
		entry := &commandTable[cmd]
		if entry.arity == len(args) && entry.name == string(args[0]) {
			return cmd
		}
	}
	return CmdUnknown
}

// Name returns the wire name of the command
func (c CommandType) Name() string {
	if c >= cmdCount {
		return commandTable[CmdUnknown].name
	}
	return commandTable[c].name
}

// Arity returns the number of arguments including the command name, -1 for CmdUnknown
func (c CommandType) Arity() int {
	if c >= cmdCount {
		return -1
	}
	return commandTable[c].arity
}

// String returns the string representation of a CommandType.
func (c CommandType) String() string {
	return c.Name()
}

// Commands returns all known commands, CmdUnknown excluded
func Commands() []CommandType {
	cmds := make([]CommandType, 0, cmdCount-1)
	for cmd := CmdUnknown + 1; cmd < cmdCount; cmd++ {
		cmds = append(cmds, cmd)
	}
	return cmds
}
