package modules

import (
	"fmt"

	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/ports"
)

// Registry keeps a mapping from module names to their implementations.
type Registry struct {
	modules map[string]ports.GenerationModule
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: map[string]ports.GenerationModule{}}
}

// Register adds or replaces a module implementation.
func (r *Registry) Register(module ports.GenerationModule) {
	if r.modules == nil {
		r.modules = map[string]ports.GenerationModule{}
	}
	r.modules[module.Name()] = module
}

// Resolve returns a module by name or an error if it is absent.
func (r *Registry) Resolve(name string) (ports.GenerationModule, error) {
	if module, ok := r.modules[name]; ok {
		return module, nil
	}
	return nil, fmt.Errorf("module %s is not registered", name)
}

// Step pairs a resolved module with its per-project settings.
type Step struct {
	Module   ports.GenerationModule
	Settings domain.ModuleSettings
}

// Pipeline resolves a project's ordered module list once, so unknown module
// names surface before any run starts.
func (r *Registry) Pipeline(settings []domain.ModuleSettings) ([]Step, error) {
	steps := make([]Step, 0, len(settings))
	for _, entry := range settings {
		module, err := r.Resolve(entry.Name)
		if err != nil {
			return nil, err
		}
		steps = append(steps, Step{Module: module, Settings: entry})
	}
	return steps, nil
}
