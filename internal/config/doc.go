// Package config holds the prober's configuration: performance knobs,
// filesystem locations, and the hosting profiles describing each target
// image-hosting service.
//
// Configuration is populated from CLI flags and an optional YAML profile
// file, then passed through the application by value. Hosting profiles
// are immutable; runtime overrides (token length) produce copies rather
// than mutating shared state.
package config
