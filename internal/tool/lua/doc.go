// Package lua loads content tools written in Lua.
//
// A tool script returns a table describing the tool:
//
//	return {
//	    name = "callout",
//	    mergeable = true,
//	    preserve_line_breaks = false,
//	    media = false,
//	    fields = {"title", "text"},
//	    merge_into = "text",
//
//	    -- optional hooks
//	    is_empty = function(data) return data.text == "" end,
//	    merge = function(target, source)
//	        target.text = target.text .. source.text
//	        return target
//	    end,
//	    validate = function(data) return data.title ~= nil end,
//	}
//
// Each script runs in its own sandboxed state with only the base, table,
// string and math libraries opened. Hook calls are serialized per tool.
package lua
