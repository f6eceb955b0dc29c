// Package confload maps TOML-tagged config structs to a lixenwraith/config
// loader and to "key=value" override strings.
package confload

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/lixenwraith/config"
)

// LoadFile fills target, a pointer to a struct with toml tags, from the TOML
// file at path. Keys are looked up under prefix. A missing file leaves the
// current target values in place.
func LoadFile(path, prefix string, target any) error {
	v, err := structValue(target)
	if err != nil {
		return err
	}

	loader := config.New()

	// Register current values as defaults
	if err := loader.RegisterStruct(prefix, v.Interface()); err != nil {
		return fmt.Errorf("failed to register config struct: %w", err)
	}

	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	return Extract(loader, prefix, target)
}

// Extract copies values found in loader under prefix into target's fields
func Extract(loader *config.Config, prefix string, target any) error {
	v, err := structValue(target)
	if err != nil {
		return err
	}
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tomlTag := field.Tag.Get("toml")
		if tomlTag == "" {
			continue
		}

		val, found := loader.Get(prefix + tomlTag)
		if !found {
			continue
		}

		if err := SetField(v.Field(i), val); err != nil {
			return fmt.Errorf("failed to set field %s: %w", field.Name, err)
		}
	}
	return nil
}

// ApplyStrings applies "key=value" overrides to target. All malformed
// entries are reported together.
func ApplyStrings(target any, overrides ...string) error {
	fields, err := fieldsByTag(target)
	if err != nil {
		return err
	}

	var errs []error
	for _, override := range overrides {
		key, value, err := ParseKeyValue(override)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		field, ok := fields[key]
		if !ok {
			errs = append(errs, fmt.Errorf("unknown config key: %s", key))
			continue
		}

		if err := setFieldString(field, value); err != nil {
			errs = append(errs, fmt.Errorf("invalid value for %s '%s': %w", key, value, err))
		}
	}

	return combine(errs)
}

// ApplyMap applies typed overrides keyed by toml tag
func ApplyMap(target any, overrides map[string]any) error {
	fields, err := fieldsByTag(target)
	if err != nil {
		return err
	}

	for key, value := range overrides {
		field, ok := fields[key]
		if !ok {
			return fmt.Errorf("unknown config key: %s", key)
		}
		if err := SetField(field, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return nil
}

// ParseKeyValue splits a "key=value" string
func ParseKeyValue(arg string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(arg), "=", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid format in override string '%s', expected key=value", arg)
	}
	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", fmt.Errorf("key cannot be empty in override string '%s'", arg)
	}
	return key, value, nil
}

// SetField sets a reflect.Value with proper type conversion
func SetField(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		field.SetString(strVal)

	case reflect.Int, reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("expected integer, got %T", value)
		}

	case reflect.Float64:
		switch v := value.(type) {
		case float64:
			field.SetFloat(v)
		case int64:
			field.SetFloat(float64(v))
		default:
			return fmt.Errorf("expected float64, got %T", value)
		}

	case reflect.Bool:
		boolVal, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		field.SetBool(boolVal)

	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}
	return nil
}

// setFieldString parses value according to the field kind
func setFieldString(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intVal)
	case reflect.Float64:
		floatVal, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatVal)
	case reflect.Bool:
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolVal)
	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}
	return nil
}

func structValue(target any) (reflect.Value, error) {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("config target must be a non-nil struct pointer, got %T", target)
	}
	return v.Elem(), nil
}

func fieldsByTag(target any) (map[string]reflect.Value, error) {
	v, err := structValue(target)
	if err != nil {
		return nil, err
	}
	t := v.Type()

	fields := make(map[string]reflect.Value, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("toml"); tag != "" {
			fields[tag] = v.Field(i)
		}
	}
	return fields, nil
}

// combine joins several errors into one numbered message
func combine(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}

	var sb strings.Builder
	sb.WriteString("multiple configuration errors:")
	for i, err := range errs {
		sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, err.Error()))
	}
	return errors.New(sb.String())
}
