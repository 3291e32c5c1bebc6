// Package config fills service configuration structs from an optional YAML
// file followed by environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// PathEnv names the variable holding the YAML file read by LoadConfig.
const PathEnv = "CONFIG_FILE"

var durationType = reflect.TypeOf(time.Duration(0))

// LoadConfig loads the YAML file named by CONFIG_FILE (if any) into target and
// then applies environment overrides. Each leaf field is read from its `env`
// tag, or from the upper-cased field path (PARENT_CHILD) when the tag is absent.
// `env:"-"` opts a field out.
func LoadConfig(target interface{}) error {
	return LoadFile(os.Getenv(PathEnv), target)
}

// LoadFile is LoadConfig with an explicit YAML path. An empty path or a missing
// file leaves target untouched before the environment pass.
func LoadFile(path string, target interface{}) error {
	root, err := structRoot(target)
	if err != nil {
		return err
	}
	if err := decodeYAML(path, target); err != nil {
		return err
	}

	var errs []error
	overlayEnv(root, "", &errs)
	return errors.Join(errs...)
}

func structRoot(target interface{}) (reflect.Value, error) {
	if target == nil {
		return reflect.Value{}, errors.New("config: target is nil")
	}
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, errors.New("config: target must be pointer to struct")
	}
	return v.Elem(), nil
}

func decodeYAML(path string, target interface{}) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("config: read file: %w", err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("config: decode yaml %s: %w", path, err)
	}
	return nil
}

// overlayEnv walks the struct and records one error per unparsable variable.
func overlayEnv(v reflect.Value, prefix string, errs *[]error) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field, meta := v.Field(i), t.Field(i)
		if !field.CanSet() {
			continue
		}
		if meta.Anonymous {
			overlayEnv(field, prefix, errs)
			continue
		}

		key, ok := envKey(prefix, meta)
		if !ok {
			continue
		}
		if field.Kind() == reflect.Struct && field.Type() != durationType {
			overlayEnv(field, key, errs)
			continue
		}

		raw, set := os.LookupEnv(key)
		if !set {
			continue
		}
		if err := setField(field, strings.TrimSpace(raw)); err != nil {
			*errs = append(*errs, fmt.Errorf("config: parse %s: %w", key, err))
		}
	}
}

func envKey(prefix string, meta reflect.StructField) (string, bool) {
	tag := meta.Tag.Get("env")
	switch {
	case tag == "-":
		return "", false
	case tag != "":
		return upper(tag), true
	case prefix == "":
		return upper(meta.Name), true
	default:
		return prefix + "_" + upper(meta.Name), true
	}
}

func upper(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, "-", "_"))
}

func setField(field reflect.Value, raw string) error {
	typ := field.Type()
	if typ == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch typ.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, typ.Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, typ.Bits())
		if err != nil {
			return err
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, typ.Bits())
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Slice:
		if typ.Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported field type %s", typ)
		}
		field.Set(reflect.ValueOf(splitList(raw)))
	default:
		return fmt.Errorf("unsupported field type %s", typ)
	}
	return nil
}

// splitList parses comma separated values, dropping blanks.
func splitList(raw string) []string {
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
