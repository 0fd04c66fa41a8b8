// Package shader compiles GLSL programs and carries the world shader sources.
package shader

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// WorldVertexShader transforms BSP polygons and picks the decal or lightmap coordinates.
//
//go:embed world.vert
var WorldVertexShader string

// WorldFragmentShader samples the bound texture.
//
//go:embed world.frag
var WorldFragmentShader string

var (
	ErrCompile = errors.New("shader compile failed")
	ErrLink    = errors.New("shader link failed")
)

// stage is one shader object of a program.
type stage struct {
	kind   uint32
	name   string
	source string
}

// Program is a linked program with cached uniform locations.
type Program struct {
	ID       uint32
	uniforms map[string]int32
}

// NewProgram compiles both stages and links them. Shader objects are
// released once linked.
func NewProgram(vertexSrc, fragmentSrc string) (*Program, error) {
	stages := []stage{
		{gl.VERTEX_SHADER, "vertex", vertexSrc},
		{gl.FRAGMENT_SHADER, "fragment", fragmentSrc},
	}

	id := gl.CreateProgram()
	for _, st := range stages {
		obj, err := st.compile()
		if err != nil {
			gl.DeleteProgram(id)
			return nil, err
		}
		gl.AttachShader(id, obj)
		defer gl.DeleteShader(obj)
	}
	gl.LinkProgram(id)

	var ok int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &ok)
	if ok == gl.FALSE {
		msg := infoLog(id, gl.GetProgramiv, gl.GetProgramInfoLog)
		gl.DeleteProgram(id)
		return nil, fmt.Errorf("%w: %s", ErrLink, msg)
	}

	return &Program{ID: id, uniforms: make(map[string]int32)}, nil
}

func (st stage) compile() (uint32, error) {
	obj := gl.CreateShader(st.kind)
	src, free := gl.Strs(st.source + "\x00")
	gl.ShaderSource(obj, 1, src, nil)
	free()
	gl.CompileShader(obj)

	var ok int32
	gl.GetShaderiv(obj, gl.COMPILE_STATUS, &ok)
	if ok == gl.FALSE {
		msg := infoLog(obj, gl.GetShaderiv, gl.GetShaderInfoLog)
		gl.DeleteShader(obj)
		return 0, fmt.Errorf("%w: %s: %s", ErrCompile, st.name, msg)
	}
	return obj, nil
}

// infoLog reads the log of a shader or program object.
func infoLog(obj uint32, param func(uint32, uint32, *int32), read func(uint32, int32, *int32, *uint8)) string {
	var n int32
	param(obj, gl.INFO_LOG_LENGTH, &n)
	if n == 0 {
		return "no log"
	}
	buf := make([]byte, n+1)
	read(obj, n, nil, &buf[0])
	return gl.GoStr(&buf[0])
}

// Use makes the program current.
func (p *Program) Use() {
	gl.UseProgram(p.ID)
}

// Uniform returns the location of a uniform, -1 if it is inactive.
func (p *Program) Uniform(name string) int32 {
	loc, ok := p.uniforms[name]
	if !ok {
		loc = gl.GetUniformLocation(p.ID, gl.Str(name+"\x00"))
		p.uniforms[name] = loc
	}
	return loc
}

// SetMat4 uploads a column-major 4x4 matrix.
func (p *Program) SetMat4(name string, m *float32) {
	gl.UniformMatrix4fv(p.Uniform(name), 1, false, m)
}

// SetInt uploads an integer or sampler unit.
func (p *Program) SetInt(name string, v int32) {
	gl.Uniform1i(p.Uniform(name), v)
}

// Delete releases the program.
func (p *Program) Delete() {
	if p.ID != 0 {
		gl.DeleteProgram(p.ID)
		p.ID = 0
	}
}
