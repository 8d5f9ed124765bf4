package util

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexInt принимает и число, и строку с числом: {"page": 12} и {"page": "12"}.
type FlexInt struct {
	Value int
	Set   bool
}

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = FlexInt{}
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = FlexInt{}
			return nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// 12.0 из JS-клиента
		fl, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || fl != float64(int(fl)) {
			return fmt.Errorf("not an integer: %s", s)
		}
		n = int(fl)
	}
	*f = FlexInt{Value: n, Set: true}
	return nil
}

func (f FlexInt) MarshalJSON() ([]byte, error) {
	if !f.Set {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(f.Value)), nil
}
