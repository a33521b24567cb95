package lua

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/blockstorm/internal/block"
	"github.com/dshills/blockstorm/internal/surface"
)

// Tool is a block.Tool backed by a Lua script.
type Tool struct {
	state *State

	name      string
	caps      block.Capabilities
	fields    []string
	mergeInto string

	isEmpty  *lua.LFunction
	merge    *lua.LFunction
	validate *lua.LFunction
}

var (
	_ block.Tool      = (*Tool)(nil)
	_ block.Validator = (*Tool)(nil)
)

// Load compiles a tool script. chunkName is used in error messages.
func Load(code, chunkName string, opts ...StateOption) (*Tool, error) {
	state := NewState(opts...)
	ret, err := state.Eval(code, chunkName)
	if err != nil {
		state.Close()
		return nil, err
	}
	t, err := fromTable(state, ret)
	if err != nil {
		state.Close()
		return nil, fmt.Errorf("%s: %w", chunkName, err)
	}
	return t, nil
}

// LoadFile compiles the tool script at path.
func LoadFile(path string, opts ...StateOption) (*Tool, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tool script %s: %w", path, err)
	}
	return Load(string(code), filepath.Base(path), opts...)
}

// LoadDir compiles every *.lua file in dir, sorted by file name.
// A missing directory yields no tools and no error.
func LoadDir(dir string, opts ...StateOption) ([]*Tool, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.lua"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	tools := make([]*Tool, 0, len(matches))
	for _, path := range matches {
		t, err := LoadFile(path, opts...)
		if err != nil {
			for _, loaded := range tools {
				loaded.Close()
			}
			return nil, err
		}
		tools = append(tools, t)
	}
	return tools, nil
}

func fromTable(state *State, lv lua.LValue) (*Tool, error) {
	tbl, ok := lv.(*lua.LTable)
	if !ok {
		return nil, ErrInvalidScript
	}

	t := &Tool{state: state}
	t.name = lua.LVAsString(tbl.RawGetString("name"))
	if t.name == "" {
		return nil, ErrMissingName
	}
	t.caps = block.Capabilities{
		Mergeable:          lua.LVAsBool(tbl.RawGetString("mergeable")),
		PreserveLineBreaks: lua.LVAsBool(tbl.RawGetString("preserve_line_breaks")),
		Media:              lua.LVAsBool(tbl.RawGetString("media")),
	}

	if fields, ok := tbl.RawGetString("fields").(*lua.LTable); ok {
		fields.ForEach(func(_, v lua.LValue) {
			if s, ok := v.(lua.LString); ok {
				t.fields = append(t.fields, string(s))
			}
		})
	}
	if !t.caps.Media && len(t.fields) == 0 {
		t.fields = []string{"text"}
	}

	t.mergeInto = lua.LVAsString(tbl.RawGetString("merge_into"))
	if t.mergeInto == "" && len(t.fields) > 0 {
		t.mergeInto = t.fields[0]
	}

	t.isEmpty, _ = tbl.RawGetString("is_empty").(*lua.LFunction)
	t.merge, _ = tbl.RawGetString("merge").(*lua.LFunction)
	t.validate, _ = tbl.RawGetString("validate").(*lua.LFunction)
	return t, nil
}

// Name implements block.Tool.
func (t *Tool) Name() string { return t.name }

// Capabilities implements block.Tool.
func (t *Tool) Capabilities() block.Capabilities { return t.caps }

// Fields returns the payload keys rendered as inputs.
func (t *Tool) Fields() []string {
	out := make([]string, len(t.fields))
	copy(out, t.fields)
	return out
}

// Render implements block.Tool.
func (t *Tool) Render(data block.Data) (block.Surface, error) {
	if len(t.fields) == 0 {
		if t.caps.Media {
			return surface.NewMedia(), nil
		}
		return surface.New(), nil
	}
	fields := make([]*surface.Field, len(t.fields))
	for i, name := range t.fields {
		fields[i] = surface.NewField(name, data.String(name))
	}
	return surface.New(fields...), nil
}

// Save implements block.Tool.
func (t *Tool) Save(s block.Surface, stored block.Data) block.Data {
	out := stored.Clone()
	for _, in := range s.Inputs() {
		out[in.Name()] = in.Text()
	}
	return out
}

// IsEmpty implements block.Tool. Without an is_empty hook a block is empty
// when all its fields are blank.
func (t *Tool) IsEmpty(data block.Data) bool {
	if t.isEmpty == nil {
		return data.IsBlank(t.fields...)
	}
	ret, err := t.call(context.Background(), t.isEmpty, data)
	if err != nil {
		return data.IsBlank(t.fields...)
	}
	return lua.LVAsBool(ret)
}

// Validate implements block.Validator.
func (t *Tool) Validate(data block.Data) bool {
	if t.validate == nil {
		return true
	}
	ret, err := t.call(context.Background(), t.validate, data)
	return err == nil && lua.LVAsBool(ret)
}

// Merge implements block.Tool. A merge hook receives the target and source
// payloads and returns the merged target payload, which is written back into
// the target surface.
func (t *Tool) Merge(ctx context.Context, target block.Surface, source block.Data) error {
	if !t.caps.Mergeable {
		return fmt.Errorf("%s: merge not supported", t.name)
	}

	if t.merge == nil {
		ts, ok := target.(*surface.Text)
		if !ok {
			return target.Append(source.String(t.mergeInto))
		}
		f := ts.Field(t.mergeInto)
		if f == nil {
			return fmt.Errorf("%s: no field %q", t.name, t.mergeInto)
		}
		f.SetText(f.Text() + source.String(t.mergeInto))
		return nil
	}

	current := t.Save(target, block.Data{})
	ret, err := t.call(ctx, t.merge, current, source)
	if err != nil {
		return fmt.Errorf("%s merge hook: %w", t.name, err)
	}
	merged, err := toData(ret)
	if err != nil {
		return fmt.Errorf("%s merge hook: %w", t.name, err)
	}
	for _, in := range target.Inputs() {
		if v, ok := merged[in.Name()].(string); ok {
			in.SetText(v)
		}
	}
	return nil
}

// Close releases the script state.
func (t *Tool) Close() error {
	return t.state.Close()
}

func (t *Tool) call(ctx context.Context, fn *lua.LFunction, args ...block.Data) (lua.LValue, error) {
	var luaArgs []lua.LValue
	if err := t.state.Do(func(L *lua.LState) error {
		for _, a := range args {
			luaArgs = append(luaArgs, mapToTable(L, a))
		}
		return nil
	}); err != nil {
		return lua.LNil, err
	}
	return t.state.Call(ctx, fn, luaArgs...)
}
