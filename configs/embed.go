// Package configs provides the configuration templates embedded in the
// fsearch binary.
//
// The templates are written by:
//   - fsearch config init            → $XDG_CONFIG_HOME/fsearch/config.yaml
//   - fsearch config init --project  → .fsearch.yaml in the project root
//
// Every key is commented out, so a fresh file changes nothing until edited.
// Load order is described in internal/config Load().
package configs

import _ "embed"

// UserConfigTemplate is the template for the user configuration, holding
// settings that apply to every project on this machine.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is the template for the project configuration,
// usually committed with the project.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
