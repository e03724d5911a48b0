package config

import (
	"encoding/json"
	"os"
	"reflect"
	"strconv"

	reachc "github.com/bsladewski/Tenacious-C-sub001/internal/errors"
)

// Raw holds the user-facing input before path/runId resolution: the
// tunable sections of EffectiveConfig that can come from defaults, a
// config file, or the environment.
type Raw struct {
	Paths         Paths
	Limits        Limits
	Thresholds    Thresholds
	Tools         Tools
	Models        Models
	Fallback      Fallback
	RunMode       RunMode
	Interactivity Interactivity
	Verbosity     Verbosity
	ToolCuration  ToolCuration
}

// Default returns the struct-tag defaults, matching the teacher's
// "defaults -> file -> environment" resolution order (§AMBIENT STACK).
func Default() *Raw {
	r := &Raw{}
	_ = applyDefaults(reflect.ValueOf(r).Elem())
	return r
}

// LoadFromFile overlays a JSON config file onto the defaults.
func LoadFromFile(r *Raw, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return reachc.New(reachc.CodeConfigInvalid, "reading config file").WithCause(err)
	}
	if err := json.Unmarshal(data, r); err != nil {
		return reachc.New(reachc.CodeConfigInvalid, "parsing config file").WithCause(err)
	}
	return nil
}

// LoadFromEnv overlays environment variables (highest priority) onto r.
func LoadFromEnv(r *Raw) error {
	return applyEnv(reflect.ValueOf(r).Elem())
}

// Load resolves Raw per AMBIENT STACK's three-tier order.
func Load(configFilePath string) (*Raw, error) {
	r := Default()
	if configFilePath != "" {
		if err := LoadFromFile(r, configFilePath); err != nil {
			return nil, err
		}
	}
	if err := LoadFromEnv(r); err != nil {
		return nil, err
	}
	return r, nil
}

func applyDefaults(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		ft := t.Field(i)
		if !field.CanSet() {
			continue
		}
		if field.Kind() == reflect.Struct {
			if err := applyDefaults(field); err != nil {
				return err
			}
			continue
		}
		if field.Kind() == reflect.Slice {
			continue
		}
		def, ok := ft.Tag.Lookup("default")
		if !ok || def == "" {
			continue
		}
		if err := setField(field, def); err != nil {
			return reachc.New(reachc.CodeConfigInvalid, "applying default for "+ft.Name).WithCause(err)
		}
	}
	return nil
}

func applyEnv(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		ft := t.Field(i)
		if !field.CanSet() {
			continue
		}
		if field.Kind() == reflect.Struct {
			if err := applyEnv(field); err != nil {
				return err
			}
			continue
		}
		envTag, ok := ft.Tag.Lookup("env")
		if !ok {
			continue
		}
		if value, present := os.LookupEnv(envTag); present && value != "" {
			if err := setField(field, value); err != nil {
				return reachc.New(reachc.CodeConfigInvalid, "setting "+envTag).WithCause(err)
			}
		}
	}
	return nil
}

func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	default:
		return nil
	}
	return nil
}
