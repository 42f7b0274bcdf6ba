package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"shiprate/internal/rate"
)

// Normalizer maps loosely shaped shipment payloads into rate.ShipmentInput.
type Normalizer interface {
	Normalize(body []byte) (rate.ShipmentInput, error)
}

// Accepted keys per field, in priority order. Dotted keys address nested
// objects.
var (
	lengthKeys      = []string{"length_cm", "length", "largo_cm", "largo", "dimensions.length_cm", "dimensions.length", "package.length_cm", "package.length"}
	widthKeys       = []string{"width_cm", "width", "ancho_cm", "ancho", "dimensions.width_cm", "dimensions.width", "package.width_cm", "package.width"}
	heightKeys      = []string{"height_cm", "height", "alto_cm", "alto", "dimensions.height_cm", "dimensions.height", "package.height_cm", "package.height"}
	weightKeys      = []string{"weight_kg", "weight", "peso_kg", "peso_real", "package.weight_kg", "package.weight"}
	destinationKeys = []string{"destination", "destination_code", "postal_code", "cp", "cp_destino", "ship_to.postal_code"}
)

func NewNormalizer() Normalizer { return &DefaultNormalizer{} }

// DefaultNormalizer accepts the canonical field names plus common aliases,
// and numbers sent either as JSON numbers or numeric strings.
type DefaultNormalizer struct{}

func (n *DefaultNormalizer) Normalize(body []byte) (rate.ShipmentInput, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return rate.ShipmentInput{}, fmt.Errorf("%w: invalid json", rate.ErrInvalidInput)
	}
	return normalizeMap(payload)
}

// normalizeQuery reads the same fields from a query string.
func normalizeQuery(q url.Values) (rate.ShipmentInput, error) {
	return normalizeMap(queryPayload(q))
}

func queryPayload(q url.Values) map[string]any {
	payload := make(map[string]any, len(q))
	for k := range q {
		payload[k] = q.Get(k)
	}
	return payload
}

// destinationFromQuery reads only the destination from a query string.
func destinationFromQuery(q url.Values) (string, error) {
	dest := strings.TrimSpace(rate.AsText(getAny(queryPayload(q), destinationKeys)))
	if dest == "" {
		return "", fmt.Errorf("%w: destination is required", rate.ErrInvalidInput)
	}
	return dest, nil
}

func normalizeMap(payload map[string]any) (rate.ShipmentInput, error) {
	var in rate.ShipmentInput
	var err error
	if in.LengthCM, err = getNumber(payload, "length_cm", lengthKeys); err != nil {
		return rate.ShipmentInput{}, err
	}
	if in.WidthCM, err = getNumber(payload, "width_cm", widthKeys); err != nil {
		return rate.ShipmentInput{}, err
	}
	if in.HeightCM, err = getNumber(payload, "height_cm", heightKeys); err != nil {
		return rate.ShipmentInput{}, err
	}
	if in.WeightKG, err = getNumber(payload, "weight_kg", weightKeys); err != nil {
		return rate.ShipmentInput{}, err
	}
	in.Destination = strings.TrimSpace(rate.AsText(getAny(payload, destinationKeys)))
	if in.Destination == "" {
		return rate.ShipmentInput{}, fmt.Errorf("%w: destination is required", rate.ErrInvalidInput)
	}
	return in, nil
}

// getNumber returns the first present value among keys as a float. A
// missing or non-numeric value is an input error named after field.
func getNumber(m map[string]any, field string, keys []string) (float64, error) {
	v := getAny(m, keys)
	if v == nil {
		return 0, fmt.Errorf("%w: %s is required", rate.ErrInvalidInput, field)
	}
	f, ok := rate.ParseNumber(v)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a number", rate.ErrInvalidInput, field)
	}
	return f, nil
}

// getAny returns the first non-nil, non-blank value from the candidate keys.
func getAny(m map[string]any, keys []string) any {
	for _, k := range keys {
		v := getPath(m, k)
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}

// getPath navigates a dot-separated key into nested maps.
func getPath(m map[string]any, path string) any {
	parts := strings.Split(path, ".")
	var cur any = m
	for _, p := range parts {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := mm[p]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}
