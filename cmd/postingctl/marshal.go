package main

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var outputJSON = jsoniter.ConfigCompatibleWithStandardLibrary

func mustMarshalLine(doc map[string]interface{}) string {
	raw, err := outputJSON.Marshal(doc)
	if err != nil {
		return fmt.Sprintf("<unmarshalable document: %v>", err)
	}
	return string(raw)
}
