package asset

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullAsset = `{
	"name": "Circle Harmony",
	"description": "A pulsing circle with a matching drone",
	"meta_info": {"category": "visual", "complexity": "medium"},
	"shader": {
		"name": "circle",
		"fragment_shader": "void main() { gl_FragColor = vec4(1.0); }",
		"uniforms": [
			{"name": "u_r", "type": "float", "default": 0.5},
			{"name": "u_speed", "type": "float"}
		],
		"input_parameters": [
			{"parameter": "u_r", "path": "u_r", "type": "float", "min": 0, "max": 1}
		]
	},
	"tone": {
		"name": "drone",
		"synth": {"oscillator": {"type": "sine"}}
	},
	"control_parameters": [
		{"parameter": "shader.u_r", "label": "Radius", "type": "float", "default": 0.5},
		{"parameter": "shader.u_speed", "label": "Speed", "type": "float"}
	],
	"modulations": [
		{
			"id": "radius_pulse",
			"target_key": "shader.u_r",
			"waveform": "sine",
			"frequency": 0.5,
			"amplitude": 0.25,
			"offset": 0.5,
			"phase": 0
		}
	]
}`

func TestDecode_FullAsset(t *testing.T) {
	a, err := Decode("full.json", []byte(fullAsset))
	require.NoError(t, err)

	assert.Equal(t, "Circle Harmony", a.Name)
	require.NotNil(t, a.Shader)
	assert.Contains(t, a.Shader.FragmentShader, "gl_FragColor")
	require.Len(t, a.Shader.Uniforms, 2)
	assert.Equal(t, "u_r", a.Shader.Uniforms[0].Name)
	require.NotNil(t, a.Tone)
	assert.Nil(t, a.Haptic)
	require.Len(t, a.ControlParameters, 2)
	assert.Equal(t, "shader.u_r", a.ControlParameters[0].Parameter)

	require.Len(t, a.Modulations, 1)
	m := a.Modulations[0]
	assert.Equal(t, "shader.u_r", m.Target)
	assert.Equal(t, WaveformSine, m.Waveform)
	assert.Equal(t, 0.5, m.Frequency)
	assert.Equal(t, 0.25, m.Amplitude)
	assert.Equal(t, 0.5, m.Offset)
}

func TestDecode_SchemaDefaults(t *testing.T) {
	raw := `{
		"name": "minimal",
		"modulations": [
			{"target_key": "x", "waveform": "sine", "frequency": 1, "amplitude": 1}
		]
	}`
	a, err := Decode("defaults.json", []byte(raw))
	require.NoError(t, err)

	m := a.Modulations[0]
	assert.Equal(t, "additive", m.Type)
	assert.Equal(t, 0.0, m.Offset)
	assert.Equal(t, 0.0, m.Phase)
	assert.Equal(t, 1.0, m.Scale)
	assert.Nil(t, m.Min)
	assert.Nil(t, m.Max)
}

func TestDecode_MinimalAsset(t *testing.T) {
	a, err := Decode("min.json", []byte(`{"name": "bare"}`))
	require.NoError(t, err)
	assert.Equal(t, "bare", a.Name)
	assert.Nil(t, a.Shader)
	assert.Empty(t, a.Modulations)
}

func TestDecode_UnknownWaveformLoads(t *testing.T) {
	// Unknown waveforms must survive decoding; the simulation loop is the
	// component that rejects them.
	raw := `{
		"name": "weird",
		"modulations": [
			{"target_key": "x", "waveform": "sawtooth", "frequency": 1, "amplitude": 1}
		]
	}`
	a, err := Decode("weird.json", []byte(raw))
	require.NoError(t, err)
	assert.Equal(t, Waveform("sawtooth"), a.Modulations[0].Waveform)
}

func TestDecode_EmptyTargetLoads(t *testing.T) {
	raw := `{
		"name": "untargeted",
		"modulations": [
			{"waveform": "sine", "frequency": 1, "amplitude": 1}
		]
	}`
	a, err := Decode("untargeted.json", []byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "", a.Modulations[0].Target)
}

func TestDecode_Failures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{"name": "broken"`},
		{"missing name", `{"description": "anonymous"}`},
		{"empty name", `{"name": ""}`},
		{"frequency wrong type", `{
			"name": "bad",
			"modulations": [{"target_key": "x", "waveform": "sine", "frequency": "fast", "amplitude": 1}]
		}`},
		{"unknown top-level field", `{"name": "typo", "modulation": []}`},
		{"uniform missing name", `{
			"name": "bad",
			"shader": {"uniforms": [{"type": "float"}]}
		}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Decode(tt.name+".json", []byte(tt.raw))
			require.Error(t, err)
			assert.Nil(t, a)
			assert.True(t, IsDecodeError(err))
		})
	}
}

func TestDecodeError_Wrapping(t *testing.T) {
	_, err := Decode("bad.json", []byte(`not json at all`))
	require.Error(t, err)
	assert.True(t, IsDecodeError(err))
	assert.Contains(t, err.Error(), "bad.json")

	wrapped := fmt.Errorf("load: %w", err)
	assert.True(t, IsDecodeError(wrapped))
}
