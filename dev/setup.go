package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	devenv "github.com/vcslav-v/pb-admin/dev/env"
	exportdb "github.com/vcslav-v/pb-admin/lib/exportstore/db"
)

const panelConfigTemplate = `{
  // credentials of a panel account used by the live tests
  site_url: "https://pixelbuddha.net",
  login: "",
  password: "",
  basic_auth_user: "",
  basic_auth_password: "",
  // a product the read-only tests may fetch
  product_id: 0,
}
`

func createDb(filename, schema string) error {
	dbPath, err := devenv.StatePath(filename)
	if err != nil {
		return err
	}

	_, err = os.Stat(dbPath)
	if err == nil {
		fmt.Println("database already created at", dbPath)
		return nil
	}

	fmt.Println("creating database at", dbPath)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.Exec(schema)
	return err
}

func CreateExportDB() error {
	return createDb("export.db", exportdb.Schema)
}

func CreatePanelConfig() error {
	configPath, err := devenv.StatePath(devenv.PanelConfigFile)
	if err != nil {
		return err
	}
	_, err = os.Stat(configPath)
	if err == nil {
		fmt.Println("panel config already exists at", configPath)
		return nil
	}
	fmt.Println("writing panel config template to", configPath)
	return os.WriteFile(configPath, []byte(panelConfigTemplate), 0600)
}

func PrintConfigLocations() {
	slog.Info("the live panel tests skip themselves until dev/.state/panel_config.json5 is filled in, run `go test -v ./lib/pbadmin` to see which ones.")
}
