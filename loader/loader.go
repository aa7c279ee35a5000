// Package loader reads dialogue definitions from authored files and
// compiles them into a validated graph. Two formats are supported: a Lua
// DSL executed in a sandboxed VM, and a declarative YAML schema. Both
// compile to the same graph and pass the same validation.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nathoo/dialoguecore/engine/graph"
	lua "github.com/yuin/gopher-lua"
)

// collector accumulates Lua definitions during file execution.
type collector struct {
	dialogue  *lua.LTable
	templates []rawTemplate
	nodes     []rawNode
}

type rawTemplate struct {
	id   string
	text string
}

type rawNode struct {
	id    string
	table *lua.LTable
}

// Load reads all dialogue files from dir and returns a validated graph.
// Directories with .lua files use the Lua DSL; otherwise a single .yaml
// or .yml file is expected. The Lua VM is discarded after loading.
func Load(dir string) (*graph.Graph, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading dialogue directory %s: %w", dir, err)
	}

	var luaFiles, yamlFiles []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch {
		case strings.HasSuffix(e.Name(), ".lua"):
			luaFiles = append(luaFiles, e.Name())
		case strings.HasSuffix(e.Name(), ".yaml"), strings.HasSuffix(e.Name(), ".yml"):
			yamlFiles = append(yamlFiles, e.Name())
		}
	}

	switch {
	case len(luaFiles) > 0:
		return loadLua(dir, luaFiles)
	case len(yamlFiles) == 1:
		return LoadYAML(filepath.Join(dir, yamlFiles[0]))
	case len(yamlFiles) > 1:
		return nil, fmt.Errorf("found %d YAML files in %s, expected one", len(yamlFiles), dir)
	default:
		return nil, fmt.Errorf("no .lua or .yaml dialogue files found in %s", dir)
	}
}

func loadLua(dir string, files []string) (*graph.Graph, error) {
	// Sort: dialogue.lua first, rest alphabetical, so metadata and
	// templates are in place before nodes reference them.
	files = sortedLuaFiles(files)

	// Create sandboxed VM.
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	for _, f := range files {
		path := filepath.Join(dir, f)
		if err := L.DoFile(path); err != nil {
			return nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	g, err := compile(coll)
	if err != nil {
		return nil, fmt.Errorf("compiling dialogue data: %w", err)
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// sortedLuaFiles orders dialogue.lua first, the rest alphabetically.
func sortedLuaFiles(files []string) []string {
	sorted := make([]string, 0, len(files))
	rest := make([]string, 0, len(files))
	for _, f := range files {
		if f == "dialogue.lua" {
			sorted = append(sorted, f)
		} else {
			rest = append(rest, f)
		}
	}
	sort.Strings(rest)
	return append(sorted, rest...)
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes dangerous globals and functions.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	// Remove math.randomseed to keep loads deterministic.
	if mathTbl := L.GetGlobal("math"); mathTbl != lua.LNil {
		if tbl, ok := mathTbl.(*lua.LTable); ok {
			tbl.RawSetString("randomseed", lua.LNil)
		}
	}
}
