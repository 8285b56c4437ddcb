package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/centinela-app/centinela/internal/flagx"
	"github.com/centinela-app/centinela/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "6s"
// or as integer nanoseconds.
type JsonConfig struct {
	GatewayURL             string         `json:"gateway_url"`
	FirestoreProjectID     string         `json:"firestore_project_id"`
	CredentialsFile        string         `json:"credentials_file"`
	DatabaseDSN            string         `json:"database_dsn"`
	PreciseLocationTimeout timex.Duration `json:"precise_location_timeout"`
	UserID                 string         `json:"user_id"`
	UserName               string         `json:"user_name"`
}

// parseJson overlays Config with values from the JSON file named by -c or
// -config. Absent flags mean no JSON is loaded. Read or unmarshal errors
// panic; LoadConfig runs before any screen exists, there is nothing to
// degrade to.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.GatewayURL != "" {
		cfg.GatewayURL = jc.GatewayURL
	}
	if jc.FirestoreProjectID != "" {
		cfg.FirestoreProjectID = jc.FirestoreProjectID
	}
	if jc.CredentialsFile != "" {
		cfg.CredentialsFile = jc.CredentialsFile
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.PreciseLocationTimeout.Duration > 0 {
		cfg.PreciseLocationTimeout = time.Duration(jc.PreciseLocationTimeout.Duration)
	}
	if jc.UserID != "" {
		cfg.UserID = jc.UserID
	}
	if jc.UserName != "" {
		cfg.UserName = jc.UserName
	}
}
