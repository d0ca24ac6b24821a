// Package module wires the catalog service
package module

import (
	"spotcrawl/internal/modkit"
	"spotcrawl/internal/modkit/httpkit"
	"spotcrawl/internal/services/catalog/domain"
	"spotcrawl/internal/services/catalog/repo"
	"spotcrawl/internal/services/catalog/service"
)

// Ports exposed by the catalog module
type Ports struct {
	Writer domain.WriterPort
	Reader domain.ReaderPort
	Schema domain.SchemaPort
}

// Module implements the catalog module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the catalog module
func New(deps modkit.Deps) *Module {
	svc := service.New(deps.PG, repo.NewPG(), deps.Log)
	m := &Module{deps: deps}
	m.ports = Ports{
		Writer: svc,
		Reader: svc,
		Schema: svc,
	}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "catalog" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module; the catalog has no routes of its own
func (m *Module) MountRoutes(r httpkit.Router) {}
