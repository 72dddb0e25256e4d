// Package validation checks resources before they are written: property
// rules declared in validate struct tags, then object constraints written
// as expressions.
//
//	Title string  `json:"title" validate:"not_blank,max=255"`
//	Price float64 `json:"price" validate:"min=0,groups=book:write"`
//	Code  string  `json:"code" validate:"pattern=^[A-Z]{3}$"`
//
// Tag rules: not_blank, min=N, max=N, email, url, phone, count=MIN:MAX,
// choice=a|b|c, groups=g1|g2 and pattern=RE, which takes the rest of the
// tag.
package validation

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/class"
	"go.uber.org/zap"
)

// propertyRules are the rules of one property
type propertyRules struct {
	field  class.Field
	rules  []Rule
	groups []string
}

// Engine validates resources. It implements the validator used by the
// GraphQL validate stage.
type Engine struct {
	classes     *class.Registry
	constraints *ConstraintValidator
	logger      *zap.Logger
	// rules caches the parsed tags per struct type
	rules sync.Map
}

// NewEngine creates a validation engine. evaluator may be nil, which
// disables object constraints.
func NewEngine(classes *class.Registry, evaluator ExpressionEvaluator, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		classes:     classes,
		constraints: NewConstraintValidator(evaluator),
		logger:      logger,
	}
}

// Validate checks object with the rules of groups. Rules declared without
// groups always apply. The returned error is an *apierr.ValidationError
// when rules are broken.
func (e *Engine) Validate(ctx context.Context, object interface{}, groups []string) error {
	v := reflect.ValueOf(object)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	properties, err := e.properties(v.Type())
	if err != nil {
		return err
	}

	violations := &apierr.ValidationError{}
	for _, p := range properties {
		if !appliesTo(p.groups, groups) {
			continue
		}
		fv, err := v.FieldByIndexErr(p.field.Index)
		var value interface{}
		if err == nil {
			value = indirect(fv)
		}
		for _, rule := range p.rules {
			if msg := rule.Check(value); msg != "" {
				violations.Add(p.field.Name, msg)
			}
		}
	}

	resourceClass := ""
	if e.classes != nil {
		resourceClass, _ = e.classes.ClassOf(object)
	}
	if err := e.constraints.Validate(ctx, resourceClass, object, groups, violations); err != nil {
		return err
	}

	if len(violations.Violations) > 0 {
		e.logger.Debug("validation failed",
			zap.String("resource", resourceClass),
			zap.Int("violations", len(violations.Violations)),
		)
		return violations
	}
	return nil
}

func (e *Engine) properties(t reflect.Type) ([]propertyRules, error) {
	if cached, ok := e.rules.Load(t); ok {
		return cached.([]propertyRules), nil
	}

	var out []propertyRules
	for _, f := range class.Fields(t) {
		tag, ok := f.Tag.Lookup("validate")
		if !ok || tag == "" || tag == "-" {
			continue
		}
		rules, groups, err := ParseTag(tag)
		if err != nil {
			return nil, apierr.Configuration("Invalid validate tag on %s.%s: %v", t.Name(), f.GoName, err)
		}
		out = append(out, propertyRules{field: f, rules: rules, groups: groups})
	}

	actual, _ := e.rules.LoadOrStore(t, out)
	return actual.([]propertyRules), nil
}

// ParseTag parses a validate struct tag into rules and groups
func ParseTag(tag string) ([]Rule, []string, error) {
	var rules []Rule
	var groups []string

	rest := tag
	for rest != "" {
		var part string
		if strings.HasPrefix(rest, "pattern=") {
			part, rest = rest, ""
		} else if i := strings.IndexByte(rest, ','); i >= 0 {
			part, rest = rest[:i], rest[i+1:]
		} else {
			part, rest = rest, ""
		}
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, value, _ := strings.Cut(part, "=")
		switch key {
		case "not_blank", "required":
			rules = append(rules, NotBlankRule{})
		case "min", "max":
			n, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%s needs a number, got %q", key, value)
			}
			if key == "min" {
				rules = append(rules, MinRule{Min: n})
			} else {
				rules = append(rules, MaxRule{Max: n})
			}
		case "pattern":
			re, err := regexp.Compile(value)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid pattern: %w", err)
			}
			rules = append(rules, PatternRule{Pattern: re})
		case "email":
			rules = append(rules, EmailRule{})
		case "url":
			rules = append(rules, URLRule{})
		case "phone":
			rules = append(rules, PhoneRule{})
		case "count":
			rule, err := parseCount(value)
			if err != nil {
				return nil, nil, err
			}
			rules = append(rules, rule)
		case "choice":
			rules = append(rules, ChoiceRule{Choices: strings.Split(value, "|")})
		case "groups":
			groups = strings.Split(value, "|")
		default:
			return nil, nil, fmt.Errorf("unknown rule %q", key)
		}
	}
	return rules, groups, nil
}

// parseCount parses MIN:MAX where either bound may be empty
func parseCount(value string) (CountRule, error) {
	rule := CountRule{Min: -1, Max: -1}
	lo, hi, found := strings.Cut(value, ":")
	if !found {
		hi = lo
	}
	var err error
	if lo != "" {
		if rule.Min, err = strconv.Atoi(lo); err != nil {
			return rule, fmt.Errorf("count needs MIN:MAX, got %q", value)
		}
	}
	if hi != "" {
		if rule.Max, err = strconv.Atoi(hi); err != nil {
			return rule, fmt.Errorf("count needs MIN:MAX, got %q", value)
		}
	}
	return rule, nil
}

// indirect dereferences pointers; a nil pointer yields nil
func indirect(v reflect.Value) interface{} {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	return v.Interface()
}
