package devenv

// PanelTestConfig is read from <dev_state>/panel_config.json5 by tests
// that talk to a live panel. Those tests skip themselves when the file is
// missing.
type PanelTestConfig struct {
	SiteURL  string `json:"site_url"`
	Login    string `json:"login"`
	Password string `json:"password"`

	BasicAuthUser     string `json:"basic_auth_user"`
	BasicAuthPassword string `json:"basic_auth_password"`

	// a product that read-only tests may fetch
	ProductID int `json:"product_id"`
}

// Ready reports whether an account was filled in.
func (c PanelTestConfig) Ready() bool {
	return c.SiteURL != "" && c.Login != ""
}
