package config

import (
	"fmt"
	"strings"

	"github.com/lumenlab/kaleido/internal/asset"
)

// Issue strings for the "missing" category.
const (
	issueMissingFragment = "missing shader fragment code"
	issueMissingUniforms = "no shader uniforms defined"
)

// deriveIssues walks a structurally valid asset for semantic findings.
//
// Issue order is fixed: shader findings first (fragment before
// uniforms), then control-parameter duplicates. Sections the asset does
// not declare produce no findings at all.
func deriveIssues(a *asset.Asset) []string {
	var issues []string

	if a.Shader != nil {
		if strings.TrimSpace(a.Shader.FragmentShader) == "" {
			issues = append(issues, issueMissingFragment)
		}
		if len(a.Shader.Uniforms) == 0 {
			issues = append(issues, issueMissingUniforms)
		}
	}

	if dups := duplicateParameters(a.ControlParameters); len(dups) > 0 {
		issues = append(issues, fmt.Sprintf(
			"duplicate control parameters: %s", strings.Join(dups, ", ")))
	}

	return issues
}

// duplicateParameters returns each parameter name that appears more than
// once, listed once per name in order of first occurrence. Matching is
// case-sensitive.
func duplicateParameters(params []asset.ControlParameter) []string {
	seen := make(map[string]int, len(params))
	var dups []string
	for _, p := range params {
		seen[p.Parameter]++
		if seen[p.Parameter] == 2 {
			dups = append(dups, p.Parameter)
		}
	}
	return dups
}
