package devenv

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/vcslav-v/pb-admin/lib/configutil"
)

const (
	moduleName = "github.com/vcslav-v/pb-admin"

	// StatePrefix starts paths that live in the checkout's dev/.state.
	StatePrefix = "<dev_state>"
	// PanelConfigFile holds the account the live panel tests log in with.
	PanelConfigFile = "panel_config.json5"
)

var modName = regexp.MustCompile(`(?m)^module +(\S+)\s*$`)

func isWorkspaceRoot(dir string) bool {
	mod, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return false
	}
	matches := modName.FindSubmatch(mod)
	return len(matches) >= 2 && string(matches[1]) == moduleName
}

// WorkspaceRoot walks up from the working directory to the checkout root,
// so package tests and the dev tool share one dev/.state.
func WorkspaceRoot() (string, error) {
	dir, err := filepath.Abs(".")
	if err != nil {
		return "", err
	}
	for {
		if isWorkspaceRoot(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// StateDir is dev/.state of the checkout. It is created on first use.
func StateDir() (string, error) {
	root, err := WorkspaceRoot()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(root, "dev", ".state")
	err = os.MkdirAll(dir, 0700)
	if err != nil {
		return "", err
	}
	return dir, nil
}

func StatePath(name string) (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// ResolvePath expands a leading <dev_state>. Other paths are returned as
// they are.
func ResolvePath(path string) (string, error) {
	rest, ok := strings.CutPrefix(path, StatePrefix)
	if !ok {
		return path, nil
	}
	return StatePath(rest)
}

// LoadPanelConfig reads PanelConfigFile from the dev state. A missing file
// yields an empty config.
func LoadPanelConfig() (PanelTestConfig, error) {
	path, err := StatePath(PanelConfigFile)
	if err != nil {
		return PanelTestConfig{}, err
	}
	config, err := configutil.ReadConfig[PanelTestConfig](path)
	if errors.Is(err, os.ErrNotExist) {
		return PanelTestConfig{}, nil
	}
	return config, err
}
