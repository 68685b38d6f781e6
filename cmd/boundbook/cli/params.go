// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// FlagsFromParams builds a pflag.FlagSet bound to the tagged fields
// of params, which must be a pointer to a struct. Panics on a
// malformed params type — that is a programming error, not runtime
// data.
//
// Three struct tags control binding:
//
//   - flag:"name" or flag:"name,n" — the long flag name and optional
//     one-character shorthand. Untagged fields are skipped.
//   - desc:"help text" — the flag's help description.
//   - default:"value" — the default, parsed per the field type.
//
// Supported field types: string, bool, int, int64, uint8, []string.
func FlagsFromParams(name string, params any) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	value := reflect.ValueOf(params)
	if value.Kind() != reflect.Ptr || value.Elem().Kind() != reflect.Struct {
		panic(fmt.Sprintf("cli.FlagsFromParams(%q): params must be a pointer to a struct, got %T", name, params))
	}

	structValue := value.Elem()
	structType := structValue.Type()
	for i := range structType.NumField() {
		field := structType.Field(i)
		tag := field.Tag.Get("flag")
		if tag == "" {
			continue
		}
		flagName, shorthand, _ := strings.Cut(tag, ",")
		description := field.Tag.Get("desc")
		defaultString := field.Tag.Get("default")

		if err := bindField(structValue.Field(i), flagSet, flagName, shorthand, description, defaultString); err != nil {
			panic(fmt.Sprintf("cli.FlagsFromParams(%q): field %s: %v", name, field.Name, err))
		}
	}
	return flagSet
}

func bindField(fieldValue reflect.Value, flagSet *pflag.FlagSet, name, shorthand, description, defaultString string) error {
	if !fieldValue.CanAddr() {
		return fmt.Errorf("not addressable")
	}

	switch target := fieldValue.Addr().Interface().(type) {
	case *string:
		flagSet.StringVarP(target, name, shorthand, defaultString, description)

	case *bool:
		defaultValue := false
		if defaultString != "" {
			parsed, err := strconv.ParseBool(defaultString)
			if err != nil {
				return fmt.Errorf("default for --%s: %w", name, err)
			}
			defaultValue = parsed
		}
		flagSet.BoolVarP(target, name, shorthand, defaultValue, description)

	case *int:
		defaultValue := 0
		if defaultString != "" {
			parsed, err := strconv.Atoi(defaultString)
			if err != nil {
				return fmt.Errorf("default for --%s: %w", name, err)
			}
			defaultValue = parsed
		}
		flagSet.IntVarP(target, name, shorthand, defaultValue, description)

	case *int64:
		var defaultValue int64
		if defaultString != "" {
			parsed, err := strconv.ParseInt(defaultString, 10, 64)
			if err != nil {
				return fmt.Errorf("default for --%s: %w", name, err)
			}
			defaultValue = parsed
		}
		flagSet.Int64VarP(target, name, shorthand, defaultValue, description)

	case *uint8:
		var defaultValue uint8
		if defaultString != "" {
			parsed, err := strconv.ParseUint(defaultString, 10, 8)
			if err != nil {
				return fmt.Errorf("default for --%s: %w", name, err)
			}
			defaultValue = uint8(parsed)
		}
		flagSet.Uint8VarP(target, name, shorthand, defaultValue, description)

	case *[]string:
		var defaultValue []string
		if defaultString != "" {
			defaultValue = strings.Split(defaultString, ",")
		}
		flagSet.StringSliceVarP(target, name, shorthand, defaultValue, description)

	default:
		return fmt.Errorf("unsupported type %s for flag --%s", fieldValue.Type(), name)
	}
	return nil
}
