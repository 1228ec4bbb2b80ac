package asset

// Waveform identifies the periodic function used by a modulation rule.
//
// The set of known waveforms is fixed; rules carrying any other value load
// successfully but fail during simulation. See package modulation.
type Waveform string

const (
	// WaveformSine is A*sin(2*pi*f*t + phase).
	WaveformSine Waveform = "sine"
	// WaveformTriangle is an amplitude-scaled triangle wave with the same
	// period and phase convention as the sine waveform.
	WaveformTriangle Waveform = "triangle"
	// WaveformSquare is +A while the underlying sine is non-negative, -A
	// otherwise.
	WaveformSquare Waveform = "square"
)

// Asset is the validated, typed representation of one synesthetic asset
// source. All section pointers are nil when the source omits the section.
type Asset struct {
	// Name identifies the asset. Required and non-empty.
	Name string `json:"name"`

	// Description explains the asset's purpose.
	Description string `json:"description,omitempty"`

	// MetaInfo carries free-form metadata (category, tags, complexity).
	MetaInfo map[string]any `json:"meta_info,omitempty"`

	// Shader is the optional visual section.
	Shader *Shader `json:"shader,omitempty"`

	// Tone is the optional audio section.
	Tone *Tone `json:"tone,omitempty"`

	// Haptic is the optional haptic section.
	Haptic *Haptic `json:"haptic,omitempty"`

	// ControlParameters maps user-facing controls onto component
	// parameters. Each entry carries at least a parameter name.
	ControlParameters []ControlParameter `json:"control_parameters,omitempty"`

	// Modulations are the time-driven parameter rules, in declaration
	// order. The simulation loop applies them in exactly this order.
	Modulations []Modulation `json:"modulations,omitempty"`
}

// Shader is the visual component of an asset.
type Shader struct {
	Name string `json:"name,omitempty"`

	// FragmentShader is the GLSL fragment source. The schema permits an
	// absent or empty value; issue derivation flags it.
	FragmentShader string `json:"fragment_shader,omitempty"`

	VertexShader string `json:"vertex_shader,omitempty"`

	// Uniforms declares the shader's uniform inputs.
	Uniforms []Uniform `json:"uniforms,omitempty"`

	// InputParameters exposes uniforms as controllable parameters.
	InputParameters []InputParameter `json:"input_parameters,omitempty"`
}

// Uniform declares one shader uniform.
type Uniform struct {
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Stage   string `json:"stage,omitempty"`
	Default any    `json:"default,omitempty"`
}

// InputParameter exposes a component value as a controllable parameter.
type InputParameter struct {
	Name      string  `json:"name,omitempty"`
	Parameter string  `json:"parameter"`
	Path      string  `json:"path,omitempty"`
	Type      string  `json:"type,omitempty"`
	Default   any     `json:"default,omitempty"`
	Min       float64 `json:"min,omitempty"`
	Max       float64 `json:"max,omitempty"`
}

// Tone is the audio component of an asset. The harness only inspects its
// presence; the nested synth/effect configuration is carried opaquely for
// collaborators that render audio.
type Tone struct {
	Name            string           `json:"name,omitempty"`
	Synth           map[string]any   `json:"synth,omitempty"`
	Effects         []map[string]any `json:"effects,omitempty"`
	Patterns        []map[string]any `json:"patterns,omitempty"`
	InputParameters []InputParameter `json:"input_parameters,omitempty"`
}

// Haptic is the haptic component of an asset, carried opaquely like Tone.
type Haptic struct {
	Name            string           `json:"name,omitempty"`
	Device          map[string]any   `json:"device,omitempty"`
	InputParameters []InputParameter `json:"input_parameters,omitempty"`
}

// ControlParameter is one user-facing control mapping.
type ControlParameter struct {
	// Parameter is the target parameter name (e.g. "visual.u_wave_x").
	// Duplicate detection compares these case-sensitively.
	Parameter string `json:"parameter"`

	Label   string  `json:"label,omitempty"`
	Type    string  `json:"type,omitempty"`
	Unit    string  `json:"unit,omitempty"`
	Default any     `json:"default,omitempty"`
	Min     float64 `json:"min,omitempty"`
	Max     float64 `json:"max,omitempty"`
}

// Modulation is one time-driven parameter rule. Read-only once decoded.
type Modulation struct {
	// ID labels the rule for diagnostics. Optional.
	ID string `json:"id,omitempty"`

	// Target is the mirror key the rule writes to.
	Target string `json:"target_key"`

	// Type selects additive or multiplicative application. The harness
	// computes raw values; combination is the renderer's concern.
	Type string `json:"type,omitempty"`

	// Waveform selects the periodic function. Unknown values fail at
	// simulation time, not at load time.
	Waveform Waveform `json:"waveform"`

	// Frequency is in cycles per unit of virtual time.
	Frequency float64 `json:"frequency"`

	// Amplitude scales the waveform output to [-Amplitude, Amplitude].
	Amplitude float64 `json:"amplitude"`

	// Offset shifts the computed value. Defaults to 0.
	Offset float64 `json:"offset,omitempty"`

	// Phase is the phase offset in radians. Defaults to 0.
	Phase float64 `json:"phase,omitempty"`

	// Min and Max optionally clamp the computed value.
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`

	// Scale is a final scaling factor. Defaults to 1.
	Scale float64 `json:"scale,omitempty"`
}
