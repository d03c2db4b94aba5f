package spauth

import (
	"fmt"
	"os"

	"github.com/koltyakov/gosip"
	"github.com/koltyakov/gosip/auth/azurecert"
)

// Identity is an app registration authenticating with a certificate
type Identity struct {
	TenantID     string
	ClientID     string
	CertPath     string
	CertPassword string
}

// Config holds the two identities operations can run as.
// Ambient is the everyday identity; Elevated is used inside elevated scopes.
type Config struct {
	DefaultSiteURL string
	Ambient        Identity
	Elevated       Identity
}

// FromEnv reads both identities and the default site URL from SP_* environment variables and validates them.
func FromEnv() (Config, error) {
	// Environment should already be loaded by main.go
	tenantID := os.Getenv("SP_TENANT_ID")
	cfg := Config{
		DefaultSiteURL: os.Getenv("SP_SITE_URL"),
		Ambient: Identity{
			TenantID:     tenantID,
			ClientID:     os.Getenv("SP_CLIENT_ID"),
			CertPath:     os.Getenv("SP_CERT_PATH"),
			CertPassword: os.Getenv("SP_CERT_PASSWORD"),
		},
		Elevated: Identity{
			TenantID:     tenantID,
			ClientID:     os.Getenv("SP_ELEVATED_CLIENT_ID"),
			CertPath:     os.Getenv("SP_ELEVATED_CERT_PATH"),
			CertPassword: os.Getenv("SP_ELEVATED_CERT_PASSWORD"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports missing settings for either identity
func (c Config) Validate() error {
	if c.Ambient.TenantID == "" || c.Ambient.ClientID == "" || c.Ambient.CertPath == "" {
		return fmt.Errorf("missing required configuration: SP_TENANT_ID, SP_CLIENT_ID, SP_CERT_PATH")
	}
	if c.Elevated.ClientID == "" || c.Elevated.CertPath == "" {
		return fmt.Errorf("missing required configuration: SP_ELEVATED_CLIENT_ID, SP_ELEVATED_CERT_PATH")
	}
	return nil
}

// NewClient creates a gosip client for siteURL authenticated as id
func NewClient(siteURL string, id Identity) (*gosip.SPClient, error) {
	if siteURL == "" {
		return nil, fmt.Errorf("site URL is required")
	}
	ac := &azurecert.AuthCnfg{
		SiteURL:  siteURL,
		TenantID: id.TenantID,
		ClientID: id.ClientID,
		CertPath: id.CertPath,
		CertPass: id.CertPassword,
	}
	client := &gosip.SPClient{AuthCnfg: ac}
	return client, nil
}
