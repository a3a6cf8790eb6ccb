package toolspec

// BuiltinDescriptors enumerates the exhaustive tool catalog of spec §4.2:
// every tool name assigned to its side-effect class, with a minimal
// argument shape. Handlers for these tools live in package toolexec;
// this package only owns the declarative description.
func BuiltinDescriptors() []ToolDescriptor {
	return []ToolDescriptor{
		// pure
		{Name: "think", Description: "Record a reasoning note without side effects.", SideEffect: Pure,
			Args: []ArgSpec{{Name: "thought", Type: ArgString, Required: true, Description: "The reasoning text."}}},
		{Name: "complete", Description: "Signal that the task is finished.", SideEffect: Pure,
			Args: []ArgSpec{{Name: "summary", Type: ArgString, Required: true, Description: "Terminal summary of what was done."}}},
		{Name: "memory:retrieve", Description: "Read a value from the executor's in-memory key-value store (not persisted).", SideEffect: Pure,
			Args: []ArgSpec{{Name: "key", Type: ArgString, Required: true}}},
		{Name: "memory:list", Description: "List all keys in the executor's in-memory key-value store (not persisted).", SideEffect: Pure},
		{Name: "todo:list", Description: "List all to-do items.", SideEffect: Pure},

		// read-only
		{Name: "read_file", Description: "Read a file's contents.", SideEffect: ReadOnly,
			Args: []ArgSpec{{Name: "path", Type: ArgString, Required: true}}},
		{Name: "list_directory", Description: "List a directory's entries.", SideEffect: ReadOnly,
			Args: []ArgSpec{{Name: "path", Type: ArgString, Required: true}}},
		{Name: "search_files", Description: "Search file contents for a pattern.", SideEffect: ReadOnly,
			Args: []ArgSpec{{Name: "pattern", Type: ArgString, Required: true}, {Name: "path", Type: ArgString}}},
		{Name: "glob_search", Description: "Find files matching a glob pattern.", SideEffect: ReadOnly,
			Args: []ArgSpec{{Name: "pattern", Type: ArgString, Required: true}}},
		{Name: "grep", Description: "Search file contents with a regular expression.", SideEffect: ReadOnly,
			Args: []ArgSpec{{Name: "pattern", Type: ArgString, Required: true}, {Name: "path", Type: ArgString}}},
		{Name: "batch_read", Description: "Read several files in one call.", SideEffect: ReadOnly,
			Args: []ArgSpec{{Name: "paths", Type: ArgStringList, Required: true}}},
		{Name: "codebase_search", Description: "Semantic search over the workspace's code files.", SideEffect: ReadOnly,
			Args: []ArgSpec{{Name: "query", Type: ArgString, Required: true}}},
		{Name: "find_definition", Description: "Find where a symbol is defined.", SideEffect: ReadOnly,
			Args: []ArgSpec{{Name: "symbol", Type: ArgString, Required: true}}},
		{Name: "find_references", Description: "Find references to a symbol.", SideEffect: ReadOnly,
			Args: []ArgSpec{{Name: "symbol", Type: ArgString, Required: true}}},
		{Name: "git_status", Description: "Report the working tree's git status.", SideEffect: ReadOnly},
		{Name: "git_diff", Description: "Show the working tree's unstaged diff.", SideEffect: ReadOnly},
		{Name: "web_search", Description: "Search the web.", SideEffect: ReadOnly,
			Args: []ArgSpec{{Name: "query", Type: ArgString, Required: true}}},
		{Name: "fetch_url", Description: "Fetch a URL's contents.", SideEffect: ReadOnly,
			Args: []ArgSpec{{Name: "url", Type: ArgString, Required: true}}},

		// mutating
		{Name: "write_file", Description: "Write a file's full contents.", SideEffect: Mutating,
			Args: []ArgSpec{{Name: "path", Type: ArgString, Required: true}, {Name: "content", Type: ArgString, Required: true}}},
		{Name: "edit_file", Description: "Edit a file by line range or substring replacement.", SideEffect: Mutating,
			Args: []ArgSpec{{Name: "path", Type: ArgString, Required: true}, {Name: "range", Type: ArgString},
				{Name: "start_line", Type: ArgInt}, {Name: "end_line", Type: ArgInt}, {Name: "new_content", Type: ArgString},
				{Name: "old_string", Type: ArgString}, {Name: "new_string", Type: ArgString}}},
		{Name: "mkdir", Description: "Create a directory.", SideEffect: Mutating,
			Args: []ArgSpec{{Name: "path", Type: ArgString, Required: true}}},
		{Name: "move", Description: "Move or rename a file or directory.", SideEffect: Mutating,
			Args: []ArgSpec{{Name: "from", Type: ArgString, Required: true}, {Name: "to", Type: ArgString, Required: true}}},
		{Name: "delete", Description: "Delete a file or directory.", SideEffect: Mutating,
			Args: []ArgSpec{{Name: "path", Type: ArgString, Required: true}}},
		{Name: "search_replace", Description: "Count and optionally apply a substring replacement across a file set.", SideEffect: Mutating,
			Args: []ArgSpec{{Name: "search", Type: ArgString, Required: true}, {Name: "replace", Type: ArgString, Required: true},
				{Name: "paths", Type: ArgStringList}, {Name: "dry_run", Type: ArgBool}}},
		{Name: "multi_edit", Description: "Apply several substring edits to one file atomically.", SideEffect: Mutating,
			Args: []ArgSpec{{Name: "path", Type: ArgString, Required: true}, {Name: "edits", Type: ArgObjectList, Required: true}}},
		{Name: "git_commit", Description: "Stage and commit the working tree.", SideEffect: Mutating,
			Args: []ArgSpec{{Name: "message", Type: ArgString, Required: true}}},
		{Name: "memory:store", Description: "Write a value to the executor's in-memory key-value store (not persisted).", SideEffect: Mutating,
			Args: []ArgSpec{{Name: "key", Type: ArgString, Required: true}, {Name: "value", Type: ArgString, Required: true}}},
		{Name: "memory:delete", Description: "Delete a key from the executor's in-memory key-value store (not persisted).", SideEffect: Mutating,
			Args: []ArgSpec{{Name: "key", Type: ArgString, Required: true}}},
		{Name: "todo:add", Description: "Add a to-do item.", SideEffect: Mutating,
			Args: []ArgSpec{{Name: "content", Type: ArgString, Required: true}}},
		{Name: "todo:update", Description: "Update a to-do item.", SideEffect: Mutating,
			Args: []ArgSpec{{Name: "id", Type: ArgString, Required: true}, {Name: "content", Type: ArgString, Required: true}}},
		{Name: "todo:complete", Description: "Mark a to-do item complete.", SideEffect: Mutating,
			Args: []ArgSpec{{Name: "id", Type: ArgString, Required: true}}},
		{Name: "todo:remove", Description: "Remove a to-do item.", SideEffect: Mutating,
			Args: []ArgSpec{{Name: "id", Type: ArgString, Required: true}}},
		{Name: "run_command", Description: "Run a shell command. Classified mutating conservatively.", SideEffect: Mutating,
			Args: []ArgSpec{{Name: "command", Type: ArgString, Required: true}}},

		// external
		{Name: "delegate_to_coder", Description: "Delegate a sub-task to the coder specialist model.", SideEffect: External,
			Args: []ArgSpec{{Name: "task", Type: ArgString, Required: true}, {Name: "context", Type: ArgString}}},
		{Name: "delegate_to_researcher", Description: "Delegate a sub-task to the researcher specialist model.", SideEffect: External,
			Args: []ArgSpec{{Name: "task", Type: ArgString, Required: true}, {Name: "context", Type: ArgString}}},
		{Name: "delegate_to_vision", Description: "Delegate a sub-task to the vision specialist model.", SideEffect: External,
			Args: []ArgSpec{{Name: "task", Type: ArgString, Required: true}, {Name: "context", Type: ArgString}}},
		{Name: "take_screenshot", Description: "Capture a screenshot of the workspace's running app.", SideEffect: External},
		{Name: "lint", Description: "Run the workspace's linter.", SideEffect: External},
		{Name: "run_tests", Description: "Run the workspace's test suite.", SideEffect: External},
		{Name: "build", Description: "Build the workspace.", SideEffect: External},
		{Name: "ask_user", Description: "Suspend the loop and ask the user a question.", SideEffect: External,
			Args: []ArgSpec{{Name: "question", Type: ArgString, Required: true}}},
	}
}

// NewBuiltinCatalog constructs a Catalog pre-populated with every
// builtin descriptor.
func NewBuiltinCatalog() (*Catalog, error) {
	c := NewCatalog()
	for _, d := range BuiltinDescriptors() {
		if err := c.Register(d); err != nil {
			return nil, err
		}
	}
	return c, nil
}
