// Package wallets provides read-only lookups over a wallet architecture.
package wallets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-custody/core"
)

var (
	ErrNoTemplates      = errors.New("wallets: wallet architecture defines no templates")
	ErrTemplateNotFound = errors.New("wallets: wallet template not found")
)

type Registry struct {
	order     []string
	templates map[string]core.WalletTemplate
	flows     map[string]string
}

func NewRegistry(architecture core.WalletArchitecture) (*Registry, error) {
	if len(architecture.Templates) == 0 {
		return nil, ErrNoTemplates
	}
	registry := &Registry{
		order:     make([]string, 0, len(architecture.Templates)),
		templates: make(map[string]core.WalletTemplate, len(architecture.Templates)),
		flows:     make(map[string]string, len(architecture.Flows)),
	}
	for _, template := range architecture.Templates {
		id := strings.TrimSpace(template.TemplateID)
		if id == "" {
			return nil, fmt.Errorf("wallets: template id is required")
		}
		if _, exists := registry.templates[id]; exists {
			return nil, fmt.Errorf("wallets: duplicate template id %q", id)
		}
		registry.order = append(registry.order, id)
		registry.templates[id] = template
	}
	for flowID, templateID := range architecture.Flows {
		registry.flows[strings.TrimSpace(flowID)] = strings.TrimSpace(templateID)
	}
	return registry, nil
}

// ListTemplates returns templates in declaration order.
func (r *Registry) ListTemplates() []core.WalletTemplate {
	if r == nil {
		return nil
	}
	out := make([]core.WalletTemplate, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.templates[id])
	}
	return out
}

func (r *Registry) Template(templateID string) (core.WalletTemplate, bool) {
	if r == nil {
		return core.WalletTemplate{}, false
	}
	template, ok := r.templates[strings.TrimSpace(templateID)]
	return template, ok
}

func (r *Registry) AccountAliases(templateID string) ([]string, error) {
	template, ok := r.Template(templateID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, templateID)
	}
	aliases := make([]string, 0, len(template.Accounts))
	for _, account := range template.Accounts {
		aliases = append(aliases, account.Alias)
	}
	return aliases, nil
}

// FlowTemplate resolves the default template configured for flowID.
func (r *Registry) FlowTemplate(flowID string) (core.WalletTemplate, bool) {
	if r == nil {
		return core.WalletTemplate{}, false
	}
	templateID, ok := r.flows[strings.TrimSpace(flowID)]
	if !ok {
		return core.WalletTemplate{}, false
	}
	return r.Template(templateID)
}

// FlowIDs returns the configured flow IDs in lexical order.
func (r *Registry) FlowIDs() []string {
	if r == nil {
		return nil
	}
	return core.SortedKeys(r.flows)
}
