package devops

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BishopFox/devopsfox/internal"
	"github.com/BishopFox/devopsfox/internal/prompt"
)

var (
	ErrMissingOrganization = errors.New("organization name is empty")
	ErrMissingToken        = errors.New("personal access token is empty")
)

// Credential pairs an organization with its personal access token. The
// token never appears in String or GoString output.
type Credential struct {
	Organization string
	Token        string
}

func (c Credential) String() string {
	return fmt.Sprintf("%s (token redacted)", c.Organization)
}

func (c Credential) GoString() string {
	return fmt.Sprintf("devops.Credential{Organization: %q, Token: <redacted>}", c.Organization)
}

func (c Credential) Validate() error {
	if strings.TrimSpace(c.Organization) == "" {
		return ErrMissingOrganization
	}
	if strings.TrimSpace(c.Token) == "" {
		return ErrMissingToken
	}
	return nil
}

// ParseCredential reads "name=token" or a bare "name" that falls back to
// defaultToken.
func ParseCredential(entry, defaultToken string) (Credential, error) {
	name, token, found := strings.Cut(strings.TrimSpace(entry), "=")
	if !found {
		token = defaultToken
	}
	cred := Credential{
		Organization: strings.TrimSpace(name),
		Token:        strings.TrimSpace(token),
	}
	if err := cred.Validate(); err != nil {
		return Credential{}, fmt.Errorf("invalid organization entry %q: %w", strings.TrimSpace(name), err)
	}
	return cred, nil
}

// ProbeFunc checks that a credential can read the organization.
type ProbeFunc func(ctx context.Context, cred Credential) error

// ProbeCredential requests a single project, the cheapest call that proves
// both the organization name and the token.
func ProbeCredential(ctx context.Context, cred Credential, cfg Config) error {
	if err := cred.Validate(); err != nil {
		return err
	}
	m := NewInventoryModule(cred, cfg)
	var list valueList[rawProject]
	return m.Client.GetJSON(ctx, m.projectsURL("$top", "1"), &list)
}

func NewProbe(cfg Config) ProbeFunc {
	return func(ctx context.Context, cred Credential) error {
		return ProbeCredential(ctx, cred, cfg)
	}
}

// AcquireCredentials runs the interactive entry loop: organization name,
// masked token, connectivity probe, retry or drop on failure, then an offer
// to add another organization. A prompt error ends the loop and returns the
// pairs accepted so far.
func AcquireCredentials(ctx context.Context, p prompt.Prompter, probe ProbeFunc, log internal.Logger) ([]Credential, error) {
	var creds []Credential
	for {
		cred, accepted, err := acquireOne(ctx, p, probe, log)
		if err != nil {
			return creds, err
		}
		if accepted {
			creds = append(creds, cred)
		}

		more, err := p.Confirm("Add another organization?", false)
		if err != nil {
			return creds, err
		}
		if !more {
			return creds, nil
		}
	}
}

func acquireOne(ctx context.Context, p prompt.Prompter, probe ProbeFunc, log internal.Logger) (Credential, bool, error) {
	for {
		org, err := p.Input("Azure DevOps organization name")
		if err != nil {
			return Credential{}, false, err
		}
		token, err := p.InputPassword(fmt.Sprintf("Personal access token for %s", org))
		if err != nil {
			return Credential{}, false, err
		}
		cred := Credential{Organization: strings.TrimSpace(org), Token: strings.TrimSpace(token)}

		log.Infof("Testing connection to organization %s...", cred.Organization)
		probeErr := cred.Validate()
		if probeErr == nil {
			probeErr = probe(ctx, cred)
		}
		if probeErr == nil {
			log.Successf("Connected to organization %s.", cred.Organization)
			return cred, true, nil
		}

		log.Warnf("Could not connect to organization %s: %v", cred.Organization, probeErr)
		retry, err := p.Confirm(fmt.Sprintf("Retry entering credentials for %s?", cred.Organization), true)
		if err != nil {
			return Credential{}, false, err
		}
		if !retry {
			log.Warnf("Skipping organization %s.", cred.Organization)
			return Credential{}, false, nil
		}
	}
}
