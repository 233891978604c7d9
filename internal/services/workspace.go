// Package services – admin-time workspace validation
//
// When an operator saves credentials (global settings or a form), the pair
// is checked against the board API by resolving the workspace name. The
// stored name is a cache of the last successful validation: it is cleared
// whenever the pair is incomplete, rejected, or unreachable.
package services

import "context"

// WorkspaceValidator checks a credential pair by calling the workspace-name
// endpoint.
type WorkspaceValidator struct {
	NewClient BoardAPIFactory
}

// ValidateForm checks a form-tier credential pair. Both fields empty means
// the form intentionally inherits the global tier: no call is made and the
// cached name clears. Exactly one field set is ErrFormCredentialsPartial.
// With both set, the remote workspace name is returned, or the client's
// error when the pair is rejected or unreachable. In every non-success case
// the returned name is "" and callers must clear any cached name.
func (v *WorkspaceValidator) ValidateForm(ctx context.Context, apiToken, workspaceSlug string) (string, error) {
	return v.validate(ctx, apiToken, workspaceSlug, ErrFormCredentialsPartial)
}

// ValidateGlobal checks the global-tier credential pair with the same
// contract as ValidateForm, reporting ErrGlobalCredentialsPartial for a
// half-set pair.
func (v *WorkspaceValidator) ValidateGlobal(ctx context.Context, apiToken, workspaceSlug string) (string, error) {
	return v.validate(ctx, apiToken, workspaceSlug, ErrGlobalCredentialsPartial)
}

func (v *WorkspaceValidator) validate(ctx context.Context, apiToken, workspaceSlug string, partialErr error) (string, error) {
	hasToken := apiToken != ""
	hasSlug := workspaceSlug != ""
	switch {
	case !hasToken && !hasSlug:
		return "", nil
	case hasToken != hasSlug:
		return "", partialErr
	}

	client, err := v.NewClient(apiToken, workspaceSlug)
	if err != nil {
		return "", err
	}
	return client.GetWorkspaceName(ctx)
}
