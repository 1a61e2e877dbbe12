package template

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"text/template"
)

// Lifecycle hook shims. The platform stores hook contents base64-encoded in
// the lifecycle configuration and runs them on the instance; the shims do
// nothing but invoke the installed agent binary, so all provisioning logic
// lives in versioned Go code instead of inline shell.
const (
	onCreateShim = `#!/bin/bash
set -euo pipefail
exec {{ .AgentPath }} on-create >> {{ .SetupLogPath }} 2>&1
`

	onStartShim = `#!/bin/bash
set -euo pipefail
exec {{ .AgentPath }} on-start >> {{ .SetupLogPath }} 2>&1
`
)

// ScriptParams parameterize the lifecycle hook shims.
type ScriptParams struct {
	// AgentPath is the installed location of the agent binary.
	AgentPath string
	// SetupLogPath receives the hooks' combined output.
	SetupLogPath string
}

func renderShim(name, text string, params ScriptParams) (string, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse %s shim: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("render %s shim: %w", name, err)
	}
	return buf.String(), nil
}

// OnCreateScript renders the create-phase hook shim.
func OnCreateScript(params ScriptParams) (string, error) {
	return renderShim("on-create", onCreateShim, params)
}

// OnStartScript renders the start-phase hook shim.
func OnStartScript(params ScriptParams) (string, error) {
	return renderShim("on-start", onStartShim, params)
}

// EncodeScript base64-encodes a hook script the way the lifecycle
// configuration resource expects its Content field.
func EncodeScript(script string) string {
	return base64.StdEncoding.EncodeToString([]byte(script))
}
