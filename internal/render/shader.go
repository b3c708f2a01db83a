package render

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/semmesh/pkg/math"
)

const meshVertexShader = `#version 410 core
layout(location = 0) in vec4 aPosition;
layout(location = 1) in vec3 aColor;

uniform mat4 uMVP;
uniform int uColorByLabel;

out vec3 vColor;

vec3 labelColor(float label) {
	float h = fract(sin(label * 12.9898) * 43758.5453);
	return vec3(fract(h * 3.1), fract(h * 5.7), fract(h * 7.3)) * 0.8 + 0.2;
}

void main() {
	gl_Position = uMVP * vec4(aPosition.xyz, 1.0);
	vColor = uColorByLabel != 0 ? labelColor(aPosition.w) : aColor;
}
`

const meshFragmentShader = `#version 410 core
in vec3 vColor;
out vec4 FragColor;

void main() {
	FragColor = vec4(vColor, 1.0);
}
`

const lineVertexShader = `#version 410 core
layout(location = 0) in vec3 aPosition;
uniform mat4 uMVP;

void main() {
	gl_Position = uMVP * vec4(aPosition, 1.0);
}
`

const lineFragmentShader = `#version 410 core
uniform vec3 uColor;
out vec4 FragColor;

void main() {
	FragColor = vec4(uColor, 1.0);
}
`

// MeshProgram draws uploaded meshes either in their vertex colors or
// colored by label.
type MeshProgram struct {
	program      uint32
	locMVP       int32
	locByLabel   int32
	lines        uint32
	locLineMVP   int32
	locLineColor int32
}

// NewMeshProgram compiles the mesh and line shaders.
func NewMeshProgram() (*MeshProgram, error) {
	program, err := compileProgram(meshVertexShader, meshFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("mesh program: %w", err)
	}
	lines, err := compileProgram(lineVertexShader, lineFragmentShader)
	if err != nil {
		gl.DeleteProgram(program)
		return nil, fmt.Errorf("line program: %w", err)
	}
	return &MeshProgram{
		program:      program,
		locMVP:       uniform(program, "uMVP"),
		locByLabel:   uniform(program, "uColorByLabel"),
		lines:        lines,
		locLineMVP:   uniform(lines, "uMVP"),
		locLineColor: uniform(lines, "uColor"),
	}, nil
}

// DrawMesh draws d with the given model-view-projection matrix.
func (p *MeshProgram) DrawMesh(d *GLMesh, mvp math.Mat4, byLabel bool) {
	gl.UseProgram(p.program)
	gl.UniformMatrix4fv(p.locMVP, 1, false, mvp.Ptr())
	flag := int32(0)
	if byLabel {
		flag = 1
	}
	gl.Uniform1i(p.locByLabel, flag)
	d.Draw()
}

// DrawLines draws l in a solid color.
func (p *MeshProgram) DrawLines(l *GLLines, mvp math.Mat4, color math.Vec3) {
	gl.UseProgram(p.lines)
	gl.UniformMatrix4fv(p.locLineMVP, 1, false, mvp.Ptr())
	gl.Uniform3f(p.locLineColor, color.X, color.Y, color.Z)
	l.Draw()
}

// Release deletes the programs.
func (p *MeshProgram) Release() {
	if p.program != 0 {
		gl.DeleteProgram(p.program)
		p.program = 0
	}
	if p.lines != 0 {
		gl.DeleteProgram(p.lines)
		p.lines = 0
	}
}

func compileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vert, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vert)

	frag, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(frag)

	program := gl.CreateProgram()
	gl.AttachShader(program, vert)
	gl.AttachShader(program, frag)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", string(log))
	}
	return program, nil
}

func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, string(log))
	}
	return shader, nil
}

func uniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}
