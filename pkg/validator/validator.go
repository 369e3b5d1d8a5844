package validator

import (
	"cmp"
	"fmt"
	"maps"
	"regexp"
	"slices"

	"github.com/neurodesk/hublc/pkg/hubl"
)

var identifier = regexp.MustCompile(`^\w+$`)

func All(errors ...error) error {
	for _, err := range errors {
		if err != nil {
			return err
		}
	}
	return nil
}

// MapDict applies f to every entry in key order.
func MapDict[T any](items map[string]T, f func(string, T) error) error {
	for _, key := range slices.Sorted(maps.Keys(items)) {
		if err := f(key, items[key]); err != nil {
			return err
		}
	}
	return nil
}

func NotEmpty(field, description string) error {
	if field == "" {
		return fmt.Errorf("%s must not be empty", description)
	}
	return nil
}

func NotNegative[T cmp.Ordered](field T, description string) error {
	var zero T
	if field < zero {
		return fmt.Errorf("%s must not be negative, got %v", description, field)
	}
	return nil
}

func MatchesAllowed[T comparable](field T, allowed []T, description string) error {
	if !slices.Contains(allowed, field) {
		return fmt.Errorf("%s must be one of %v, got %v", description, allowed, field)
	}
	return nil
}

// Identifier checks that name can be bound by a set directive.
func Identifier(name, description string) error {
	if !identifier.MatchString(name) {
		return fmt.Errorf("%s must be a word identifier, got %q", description, name)
	}
	return nil
}

func HasNoDirectives(field string, description string) error {
	if hubl.TemplateString(field).HasDirectives() {
		return fmt.Errorf("%s must not contain template directives", description)
	}
	return nil
}
