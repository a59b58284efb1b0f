package opengl

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Vertices carry a position in surface pixels and a straight-alpha color.
const vertexShaderSource = `
#version 410 core
layout (location = 0) in vec2 position;
layout (location = 1) in vec4 color;

uniform mat4 projection;

out vec4 vColor;

void main() {
    vColor = color;
    gl_Position = projection * vec4(position, 0.0, 1.0);
}
` + "\x00"

// Fragment shader source. Colors are premultiplied so the compositor can
// blend the framebuffer over the desktop.
const fragmentShaderSource = `
#version 410 core
in vec4 vColor;

out vec4 fragColor;

void main() {
    fragColor = vec4(vColor.rgb * vColor.a, vColor.a);
}
` + "\x00"

// stage is one shader stage of a program.
type stage struct {
	kind   uint32
	name   string
	source string
}

// infoLog reads the compile or link log of a shader or program object.
func infoLog(id uint32, param func(uint32, uint32, *int32), read func(uint32, int32, *int32, *uint8)) string {
	var n int32
	param(id, gl.INFO_LOG_LENGTH, &n)
	if n <= 0 {
		return ""
	}
	buf := make([]byte, n)
	read(id, n, nil, &buf[0])
	return strings.TrimRight(string(buf), "\x00\n")
}

func compileStage(st stage) (uint32, error) {
	id := gl.CreateShader(st.kind)
	src, free := gl.Strs(st.source)
	defer free()
	gl.ShaderSource(id, 1, src, nil)
	gl.CompileShader(id)

	var ok int32
	gl.GetShaderiv(id, gl.COMPILE_STATUS, &ok)
	if ok == gl.FALSE {
		msg := infoLog(id, gl.GetShaderiv, gl.GetShaderInfoLog)
		gl.DeleteShader(id)
		return 0, fmt.Errorf("%s shader: %s", st.name, msg)
	}
	return id, nil
}

// linkProgram compiles every stage and links them into a program. The
// stage objects are deleted once linked.
func linkProgram(stages ...stage) (uint32, error) {
	program := gl.CreateProgram()
	for _, st := range stages {
		id, err := compileStage(st)
		if err != nil {
			gl.DeleteProgram(program)
			return 0, err
		}
		gl.AttachShader(program, id)
		defer gl.DeleteShader(id)
	}
	gl.LinkProgram(program)

	var ok int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &ok)
	if ok == gl.FALSE {
		msg := infoLog(program, gl.GetProgramiv, gl.GetProgramInfoLog)
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", msg)
	}
	return program, nil
}

// orthoMatrix maps the box [left,right]x[bottom,top]x[near,far] to clip
// space, column-major.
func orthoMatrix(left, right, bottom, top, near, far float32) [16]float32 {
	w, h, d := right-left, top-bottom, far-near
	return [16]float32{
		2 / w, 0, 0, 0,
		0, 2 / h, 0, 0,
		0, 0, -2 / d, 0,
		-(right + left) / w, -(top + bottom) / h, -(far + near) / d, 1,
	}
}
