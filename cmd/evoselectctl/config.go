package main

import (
	"encoding/json"
	"fmt"
	"os"

	api "evoselect/pkg/evoselect"
)

func loadSelectRequestFromConfig(path string) (api.SelectRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return api.SelectRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return api.SelectRequest{}, err
	}

	var req api.SelectRequest
	if v, ok := asString(raw["run_id"]); ok {
		req.RunID = v
	}
	if v, ok := asInt(raw["generation"]); ok {
		req.Generation = v
	}
	if v, ok := asInt(raw["number"]); ok {
		req.Number = v
	}
	if v, ok := asBool(raw["preserve_best"]); ok {
		req.PreserveBest = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
	}
	switch fitness := raw["fitness"].(type) {
	case nil:
	case string:
		values, err := parseFitness(fitness)
		if err != nil {
			return api.SelectRequest{}, err
		}
		req.Fitness = values
	case []any:
		values := make([]float64, 0, len(fitness))
		for i, item := range fitness {
			v, ok := asFloat64(item)
			if !ok {
				return api.SelectRequest{}, fmt.Errorf("fitness value %d is not a number", i)
			}
			values = append(values, v)
		}
		req.Fitness = values
	default:
		return api.SelectRequest{}, fmt.Errorf("fitness must be an array or comma-separated string")
	}
	return req, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

func overrideFromFlags(req *api.SelectRequest, set map[string]bool, flagValue map[string]any) error {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "run-id":
			req.RunID = v.(string)
		case "generation":
			req.Generation = v.(int)
		case "n":
			req.Number = v.(int)
		case "preserve-best":
			req.PreserveBest = v.(bool)
		case "seed":
			req.Seed = v.(int64)
		case "fitness":
			values, err := parseFitness(v.(string))
			if err != nil {
				return err
			}
			req.Fitness = values
		}
	}
	return nil
}
