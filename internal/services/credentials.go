// Package services – credential resolution
//
// Credentials resolve through two tiers: a form-specific pair stored on the
// FormDefinition, then the global settings pair. A tier that sets exactly
// one of (api token, workspace slug) is an error state, not a fall-through:
// the half-configured tier wins and reports its own configuration error so
// operators see which tier is broken.
package services

import (
	"context"

	"github.com/bagooon/chatease-intake/internal/domain"
	"github.com/bagooon/chatease-intake/internal/repo"
)

// ConfigStore reads configuration for credential and settings resolution.
// GetForm returns (nil, nil) when no form with the given ID exists.
type ConfigStore interface {
	GetGlobal(ctx context.Context, name string) (string, error)
	GetForm(ctx context.Context, id uint) (*domain.FormDefinition, error)
}

// Credentials is a resolved credential pair plus its display metadata.
type Credentials struct {
	APIToken      string
	WorkspaceSlug string
	// WorkspaceName is the cached remote workspace name of the winning
	// tier; may be empty when it was never validated.
	WorkspaceName string
	// PerForm is true when the form tier supplied the pair.
	PerForm bool
}

// CredentialResolver resolves the credential pair for a form instance.
type CredentialResolver struct {
	Config ConfigStore
}

// Resolve returns the credentials for form, walking form tier then global
// tier. Resolution is deterministic and idempotent: the same stored
// configuration always yields the same result.
//
// Error returns are the configuration sentinels: ErrFormCredentialsPartial,
// ErrGlobalCredentialsPartial, or ErrCredentialsUnset.
func (r *CredentialResolver) Resolve(ctx context.Context, form domain.FormIdentity) (*Credentials, error) {
	if form.FormPostID > 0 {
		def, err := r.Config.GetForm(ctx, uint(form.FormPostID))
		if err != nil {
			return nil, err
		}
		if def != nil {
			hasToken := def.APIToken != ""
			hasSlug := def.WorkspaceSlug != ""
			switch {
			case hasToken && hasSlug:
				return &Credentials{
					APIToken:      def.APIToken,
					WorkspaceSlug: def.WorkspaceSlug,
					WorkspaceName: def.WorkspaceName,
					PerForm:       true,
				}, nil
			case hasToken || hasSlug:
				return nil, ErrFormCredentialsPartial
			}
			// Both absent: the form tier is silent, fall to global.
		}
	}

	token, err := r.Config.GetGlobal(ctx, repo.SettingAPIToken)
	if err != nil {
		return nil, err
	}
	slug, err := r.Config.GetGlobal(ctx, repo.SettingWorkspaceSlug)
	if err != nil {
		return nil, err
	}

	hasToken := token != ""
	hasSlug := slug != ""
	switch {
	case hasToken && hasSlug:
		name, err := r.Config.GetGlobal(ctx, repo.SettingWorkspaceName)
		if err != nil {
			return nil, err
		}
		return &Credentials{
			APIToken:      token,
			WorkspaceSlug: slug,
			WorkspaceName: name,
		}, nil
	case hasToken || hasSlug:
		return nil, ErrGlobalCredentialsPartial
	default:
		return nil, ErrCredentialsUnset
	}
}
