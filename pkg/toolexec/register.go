package toolexec

// registerBuiltinHandlers binds every tool name in toolspec.BuiltinDescriptors
// to its concrete handler. A descriptor left unbound here dispatches to
// Execute's "unknown tool" fallback, which would be a registration bug,
// not a runtime condition — every builtin name must appear exactly once.
func registerBuiltinHandlers(ex *Executor) {
	// pure
	ex.RegisterHandler("think", handleThink)
	ex.RegisterHandler("complete", handleComplete)
	ex.RegisterHandler("memory:retrieve", handleMemoryRetrieve)
	ex.RegisterHandler("memory:list", handleMemoryList)
	ex.RegisterHandler("todo:list", handleTodoList)

	// read-only
	ex.RegisterHandler("read_file", handleReadFile)
	ex.RegisterHandler("list_directory", handleListDirectory)
	ex.RegisterHandler("search_files", handleSearchFiles)
	ex.RegisterHandler("glob_search", handleGlobSearch)
	ex.RegisterHandler("grep", handleGrep)
	ex.RegisterHandler("batch_read", handleBatchRead)
	ex.RegisterHandler("codebase_search", handleCodebaseSearch)
	ex.RegisterHandler("find_definition", handleFindDefinition)
	ex.RegisterHandler("find_references", handleFindReferences)
	ex.RegisterHandler("git_status", handleGitStatus)
	ex.RegisterHandler("git_diff", handleGitDiff)
	ex.RegisterHandler("web_search", handleWebSearch)
	ex.RegisterHandler("fetch_url", handleFetchURL)

	// mutating
	ex.RegisterHandler("write_file", handleWriteFile)
	ex.RegisterHandler("edit_file", handleEditFile)
	ex.RegisterHandler("mkdir", handleMkdir)
	ex.RegisterHandler("move", handleMove)
	ex.RegisterHandler("delete", handleDelete)
	ex.RegisterHandler("search_replace", handleSearchReplace)
	ex.RegisterHandler("multi_edit", handleMultiEdit)
	ex.RegisterHandler("git_commit", handleGitCommit)
	ex.RegisterHandler("memory:store", handleMemoryStore)
	ex.RegisterHandler("memory:delete", handleMemoryDelete)
	ex.RegisterHandler("todo:add", handleTodoAdd)
	ex.RegisterHandler("todo:update", handleTodoUpdate)
	ex.RegisterHandler("todo:complete", handleTodoComplete)
	ex.RegisterHandler("todo:remove", handleTodoRemove)
	ex.RegisterHandler("run_command", handleRunCommand)

	// external
	ex.RegisterHandler("delegate_to_coder", delegateHandler("coder"))
	ex.RegisterHandler("delegate_to_researcher", delegateHandler("researcher"))
	ex.RegisterHandler("delegate_to_vision", delegateHandler("vision"))
	ex.RegisterHandler("take_screenshot", handleExternalUnavailable("take_screenshot"))
	ex.RegisterHandler("lint", handleExternalUnavailable("lint"))
	ex.RegisterHandler("run_tests", handleExternalUnavailable("run_tests"))
	ex.RegisterHandler("build", handleExternalUnavailable("build"))
	ex.RegisterHandler("ask_user", handleAskUser)
}
