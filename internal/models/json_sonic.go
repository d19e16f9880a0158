//go:build sonic

package models

import (
	"github.com/bytedance/sonic"
)

var jsonMarshal = sonic.ConfigStd.Marshal
var jsonUnmarshal = sonic.ConfigStd.Unmarshal

func jsonMarshalIndent(v any) ([]byte, error) {
	return sonic.ConfigStd.MarshalIndent(v, "", "  ")
}
