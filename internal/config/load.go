package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"banketl/internal/etlerr"
)

// Environment overrides, applied after the file is decoded.
const (
	EnvURL      = "BANKETL_URL"
	EnvDBKind   = "BANKETL_DB_KIND"
	EnvDBDSN    = "BANKETL_DB_DSN"
	EnvDBTable  = "BANKETL_DB_TABLE"
	EnvLogPath  = "BANKETL_LOG_PATH"
	EnvInsecure = "BANKETL_INSECURE_SKIP_VERIFY"
)

// Load builds the run configuration: Default, then the JSON file at path
// (skipped when path is empty), then environment overrides. Variables from
// envFiles are loaded first with godotenv; missing env files are ignored and
// variables already set in the process win.
func Load(path string, envFiles ...string) (Pipeline, error) {
	if err := LoadEnv(envFiles...); err != nil {
		return Pipeline{}, err
	}

	p := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Pipeline{}, etlerr.Wrapf(etlerr.ErrConfig, err, "config: read %s", path)
		}
		if err := Decode(b, &p); err != nil {
			return Pipeline{}, etlerr.Wrapf(etlerr.ErrConfig, err, "config: decode %s", path)
		}
	}
	if err := ApplyEnv(&p); err != nil {
		return Pipeline{}, err
	}
	return p, nil
}

// Decode unmarshals b over p, rejecting unknown keys. Keys absent from b keep
// p's current values.
func Decode(b []byte, p *Pipeline) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	return dec.Decode(p)
}

// LoadEnv loads KEY=VALUE files into the process environment.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return etlerr.Wrapf(etlerr.ErrConfig, err, "config: load env file %s", f)
		}
	}
	return nil
}

// ApplyEnv overrides p from BANKETL_* variables that are set and non-empty.
func ApplyEnv(p *Pipeline) error {
	set := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	set(EnvURL, &p.Source.URL)
	set(EnvDBKind, &p.Storage.Kind)
	set(EnvDBDSN, &p.Storage.DB.DSN)
	set(EnvDBTable, &p.Storage.DB.Table)
	set(EnvLogPath, &p.Log.Path)

	if v, ok := os.LookupEnv(EnvInsecure); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return etlerr.Wrapf(etlerr.ErrConfig, err, "config: %s", EnvInsecure)
		}
		p.Source.InsecureSkipVerify = b
	}
	return nil
}
