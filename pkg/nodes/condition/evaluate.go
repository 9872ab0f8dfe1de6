// Package condition provides the control-flow node executors: conditional
// branching and list filtering over {fieldPath, operator, value} rules.
package condition

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Operator is one comparison applied to an extracted field.
type Operator string

const (
	OperatorEquals      Operator = "equals"
	OperatorNotEquals   Operator = "not_equals"
	OperatorContains    Operator = "contains"
	OperatorGreaterThan Operator = "greater_than"
	OperatorLessThan    Operator = "less_than"
	OperatorExists      Operator = "exists"
	OperatorRegex       Operator = "regex"
)

// Rule is one condition over a field of the evaluated subject.
type Rule struct {
	FieldPath string
	Operator  Operator
	Value     any
}

// Combinator joins multiple rules.
type Combinator string

const (
	CombinatorAnd Combinator = "and"
	CombinatorOr  Combinator = "or"
)

func parseRules(raw any) ([]Rule, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("'conditions' must be a list")
	}

	rules := make([]Rule, 0, len(list))

	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("condition %d must be an object", i)
		}

		fieldPath, _ := entry["fieldPath"].(string)
		operator, _ := entry["operator"].(string)

		if fieldPath == "" || operator == "" {
			return nil, fmt.Errorf("condition %d requires 'fieldPath' and 'operator'", i)
		}

		switch Operator(operator) {
		case OperatorEquals, OperatorNotEquals, OperatorContains,
			OperatorGreaterThan, OperatorLessThan, OperatorExists, OperatorRegex:
		default:
			return nil, fmt.Errorf("condition %d has unknown operator %q", i, operator)
		}

		rules = append(rules, Rule{
			FieldPath: fieldPath,
			Operator:  Operator(operator),
			Value:     entry["value"],
		})
	}

	return rules, nil
}

// evaluate applies every rule to the subject and combines the outcomes.
func evaluate(subject any, rules []Rule, combinator Combinator) (bool, error) {
	if len(rules) == 0 {
		return true, nil
	}

	for _, rule := range rules {
		matched, err := evaluateRule(subject, rule)
		if err != nil {
			return false, err
		}

		if combinator == CombinatorOr && matched {
			return true, nil
		}

		if combinator != CombinatorOr && !matched {
			return false, nil
		}
	}

	return combinator != CombinatorOr, nil
}

func evaluateRule(subject any, rule Rule) (bool, error) {
	field, found := extractField(subject, rule.FieldPath)

	switch rule.Operator {
	case OperatorExists:
		return found && field != nil, nil
	case OperatorEquals:
		return found && looseEquals(field, rule.Value), nil
	case OperatorNotEquals:
		return !found || !looseEquals(field, rule.Value), nil
	case OperatorContains:
		return found && strings.Contains(asString(field), asString(rule.Value)), nil
	case OperatorGreaterThan, OperatorLessThan:
		left, leftOk := asNumber(field)
		right, rightOk := asNumber(rule.Value)

		// Non-numeric operands evaluate false rather than erroring.
		if !found || !leftOk || !rightOk {
			return false, nil
		}

		if rule.Operator == OperatorGreaterThan {
			return left > right, nil
		}

		return left < right, nil
	case OperatorRegex:
		pattern, err := regexp.Compile(asString(rule.Value))
		if err != nil {
			return false, fmt.Errorf("invalid regex %q: %w", asString(rule.Value), err)
		}

		return found && pattern.MatchString(asString(field)), nil
	default:
		return false, fmt.Errorf("unknown operator %q", rule.Operator)
	}
}

// extractField resolves a dotted/bracket path ("$.a.b[0].c") against the
// subject. A leading "$." is optional.
func extractField(subject any, fieldPath string) (any, bool) {
	path := strings.TrimPrefix(fieldPath, "$.")
	path = strings.TrimPrefix(path, "$")

	if path == "" {
		return subject, subject != nil
	}

	// gjson uses dot-separated numeric segments for array indexes.
	path = strings.NewReplacer("[", ".", "]", "").Replace(path)

	encoded, err := json.Marshal(subject)
	if err != nil {
		return nil, false
	}

	result := gjson.GetBytes(encoded, path)
	if !result.Exists() {
		return nil, false
	}

	return result.Value(), true
}

func looseEquals(left, right any) bool {
	if leftNum, ok := asNumber(left); ok {
		if rightNum, ok := asNumber(right); ok {
			return leftNum == rightNum
		}
	}

	return asString(left) == asString(right)
}

func asString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		return string(encoded)
	}
}

func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(v, 64)

		return parsed, err == nil
	default:
		return 0, false
	}
}
