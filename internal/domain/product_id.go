package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ProductID identifies a product. Catalog sources may send it as a JSON number
// or string; it is always compared in its string form.
type ProductID string

func (id ProductID) String() string {
	return string(id)
}

// UnmarshalJSON accepts both `12` and `"12"`
func (id *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProductID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product id must be a string or number: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*id = ProductID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = ProductID(n.String())
	return nil
}

// UnmarshalYAML accepts scalar ids of any type
func (id *ProductID) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*id = ""
	case string:
		*id = ProductID(v)
	case int:
		*id = ProductID(strconv.Itoa(v))
	default:
		*id = ProductID(fmt.Sprint(v))
	}
	return nil
}
