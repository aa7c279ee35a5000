package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerConditionHelpers(L)
	registerEffectHelpers(L)
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Dialogue { title = "...", npc = "...", entry = "...", ... }
	L.SetGlobal("Dialogue", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		coll.dialogue = tbl
		return 0
	}))

	// Template("id", "text with {placeholders}")
	L.SetGlobal("Template", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		text := L.CheckString(2)
		coll.templates = append(coll.templates, rawTemplate{id: id, text: text})
		return 0
	}))

	// Node "id" { rules = {...}, fallback = {...} } — curried: Node("id")
	// returns a function that takes the body table.
	L.SetGlobal("Node", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.nodes = append(coll.nodes, rawNode{id: id, table: tbl})
			return 0
		}))
		return 1
	}))

	// Rule("id", condition, { priority = n, target = "...", template = "...",
	// effects = {...} }) — condition may be nil for always-true rules.
	// Returns a rule table consumed by the node's rules list.
	L.SetGlobal("Rule", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)

		var condTbl *lua.LTable
		if arg2 := L.Get(2); arg2 != lua.LNil {
			t, ok := arg2.(*lua.LTable)
			if !ok {
				L.ArgError(2, "condition table or nil expected")
			}
			condTbl = t
		}
		opts := L.CheckTable(3)

		rule := L.NewTable()
		rule.RawSetString("id", lua.LString(id))
		if condTbl != nil {
			rule.RawSetString("condition", condTbl)
		}
		opts.ForEach(func(k, v lua.LValue) {
			rule.RawSetString(lua.LVAsString(k), v)
		})
		L.Push(rule)
		return 1
	}))

	// Fallback { target = "...", template = "..." } — pass-through, returns
	// the table. Exists so node bodies read as prose.
	L.SetGlobal("Fallback", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		L.Push(tbl)
		return 1
	}))
}

// condTable builds a leaf comparison table {op, key, value}.
func condTable(L *lua.LState, op string) *lua.LTable {
	key := L.CheckString(1)
	value := L.CheckAny(2)
	tbl := L.NewTable()
	tbl.RawSetString("op", lua.LString(op))
	tbl.RawSetString("key", lua.LString(key))
	tbl.RawSetString("value", value)
	return tbl
}

func registerConditionHelpers(L *lua.LState) {
	leafOps := []string{"eq", "ne", "gt", "gte", "lt", "lte"}
	leafNames := []string{"Eq", "Ne", "Gt", "Gte", "Lt", "Lte"}
	for i, name := range leafNames {
		op := leafOps[i]
		L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
			L.Push(condTable(L, op))
			return 1
		}))
	}

	// In("key", {v1, v2, ...})
	L.SetGlobal("In", L.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(1)
		values := L.CheckTable(2)
		tbl := L.NewTable()
		tbl.RawSetString("op", lua.LString("in"))
		tbl.RawSetString("key", lua.LString(key))
		tbl.RawSetString("values", values)
		L.Push(tbl)
		return 1
	}))

	// All{c1, c2, ...} / Any{c1, c2, ...}
	for _, name := range []string{"All", "Any"} {
		op := "all"
		if name == "Any" {
			op = "any"
		}
		L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
			children := L.CheckTable(1)
			tbl := L.NewTable()
			tbl.RawSetString("op", lua.LString(op))
			tbl.RawSetString("children", children)
			L.Push(tbl)
			return 1
		}))
	}

	// Not(c)
	L.SetGlobal("Not", L.NewFunction(func(L *lua.LState) int {
		child := L.CheckTable(1)
		children := L.NewTable()
		children.Append(child)
		tbl := L.NewTable()
		tbl.RawSetString("op", lua.LString("not"))
		tbl.RawSetString("children", children)
		L.Push(tbl)
		return 1
	}))
}

func registerEffectHelpers(L *lua.LState) {
	// Set("key", value)
	L.SetGlobal("Set", L.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(1)
		value := L.CheckAny(2)
		tbl := L.NewTable()
		tbl.RawSetString("op", lua.LString("set"))
		tbl.RawSetString("key", lua.LString(key))
		tbl.RawSetString("value", value)
		L.Push(tbl)
		return 1
	}))

	// Inc("key", amount) — amount defaults to 1.
	L.SetGlobal("Inc", L.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(1)
		amount := lua.LValue(lua.LNumber(1))
		if arg2 := L.Get(2); arg2 != lua.LNil {
			amount = L.CheckNumber(2)
		}
		tbl := L.NewTable()
		tbl.RawSetString("op", lua.LString("inc"))
		tbl.RawSetString("key", lua.LString(key))
		tbl.RawSetString("value", amount)
		L.Push(tbl)
		return 1
	}))

	// Toggle("key")
	L.SetGlobal("Toggle", L.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(1)
		tbl := L.NewTable()
		tbl.RawSetString("op", lua.LString("toggle"))
		tbl.RawSetString("key", lua.LString(key))
		L.Push(tbl)
		return 1
	}))
}
